package slackconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/syntaxsamurai/supportdesk/internal/chat"
	"github.com/syntaxsamurai/supportdesk/internal/connector"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

const (
	actionConfirm = "ticket_yes"
	actionDecline = "ticket_no"
)

// Config holds Slack connector configuration.
type Config struct {
	BotToken string   // xoxb-... Bot User OAuth Token
	AppToken string   // xapp-... App-Level Token (for Socket Mode)
	Channels []string // Optional: only respond in these channels (empty = all)
}

// Connector implements connector.Connector for Slack via Socket Mode.
type Connector struct {
	api    *slack.Client
	socket *socketmode.Client
	config Config
	desk   connector.Desk
	logger *slog.Logger
	cancel context.CancelFunc
	botID  string
}

// New creates a new Slack connector.
func New(cfg Config, desk connector.Desk, logger *slog.Logger) (*Connector, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack: bot_token is required")
	}
	if cfg.AppToken == "" {
		return nil, fmt.Errorf("slack: app_token is required (Socket Mode)")
	}

	if logger == nil {
		logger = slog.Default()
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))

	// Test auth and get bot user ID
	authResp, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}

	logger.Info("slack bot authorized", "user", authResp.User, "team", authResp.Team)

	socket := socketmode.New(api)

	return &Connector{
		api:    api,
		socket: socket,
		config: cfg,
		desk:   desk,
		logger: logger,
		botID:  authResp.UserID,
	}, nil
}

func (c *Connector) Name() string { return "slack" }

// Start begins listening for events via Socket Mode. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleEvents(ctx)

	c.logger.Info("slack connector started (socket mode)")
	return c.socket.RunContext(ctx)
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Connector) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.socket.Events:
			switch event.Type {
			case socketmode.EventTypeEventsAPI:
				c.handleEventsAPI(ctx, event)
			case socketmode.EventTypeInteractive:
				c.handleInteractive(ctx, event)
			}
		}
	}
}

func (c *Connector) handleEventsAPI(ctx context.Context, event socketmode.Event) {
	eventsAPIEvent, ok := event.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}

	c.socket.Ack(*event.Request)

	switch ev := eventsAPIEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		c.handleMessage(ctx, ev)
	case *slackevents.AppMentionEvent:
		c.handleMention(ctx, ev)
	}
}

func (c *Connector) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	// Ignore bot messages (including our own)
	if ev.BotID != "" || ev.User == "" || ev.User == c.botID {
		return
	}
	// Ignore message subtypes (edits, deletes, etc.)
	if ev.SubType != "" {
		return
	}

	// Channel filter
	if !c.isAllowedChannel(ev.Channel) {
		return
	}

	text := ev.Text
	if text == "" {
		return
	}

	c.dispatch(ctx, ev.Channel, ev.ThreadTimeStamp, ev.User, text)
}

func (c *Connector) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	if ev.User == c.botID {
		return
	}

	// Strip the bot mention from the text
	text := StripMention(ev.Text, c.botID)
	if text == "" {
		return
	}

	c.dispatch(ctx, ev.Channel, ev.ThreadTimeStamp, ev.User, text)
}

// dispatch routes a user message into the session for this conversation and
// posts the assistant replies back. Threaded messages keep their own session.
func (c *Connector) dispatch(ctx context.Context, channel, threadTS, userID, text string) {
	chatID := channel
	if threadTS != "" {
		chatID = channel + ":" + threadTS
	}

	user := support.Identity{ID: "slack_" + userID}
	msgs, err := c.desk.SendMessage(ctx, sessionKey(chatID), user, text)
	if err != nil {
		c.logger.Error("send message failed", "channel", channel, "user", userID, "error", err)
		return
	}
	c.relay(channel, threadTS, msgs)
}

func (c *Connector) handleInteractive(ctx context.Context, event socketmode.Event) {
	callback, ok := event.Data.(slack.InteractionCallback)
	if !ok {
		return
	}

	c.socket.Ack(*event.Request)

	if callback.Type != slack.InteractionTypeBlockActions {
		return
	}

	channel := callback.Channel.ID
	threadTS := callback.Message.ThreadTimestamp
	chatID := channel
	if threadTS != "" {
		chatID = channel + ":" + threadTS
	}
	session := sessionKey(chatID)

	for _, action := range callback.ActionCallback.BlockActions {
		var msgs []support.Message
		var err error
		switch action.ActionID {
		case actionConfirm:
			_, msgs, err = c.desk.ConfirmTicket(ctx, session)
		case actionDecline:
			msgs, err = c.desk.DeclineTicket(session)
		default:
			continue
		}

		if err != nil {
			if errors.Is(err, chat.ErrNoPendingTicket) {
				continue
			}
			c.logger.Error("ticket action failed", "channel", channel, "action", action.ActionID, "error", err)
			continue
		}
		c.relay(channel, threadTS, msgs)
	}
}

// relay posts assistant messages to the channel, skipping user echoes and
// typing placeholders. A ticket offer gets confirm/decline buttons.
func (c *Connector) relay(channel, threadTS string, msgs []support.Message) {
	for _, m := range msgs {
		if m.Sender != support.SenderAssistant || m.IsTyping {
			continue
		}

		var opts []slack.MsgOption
		if m.IsTicketSuggestion {
			opts = append(opts, slack.MsgOptionBlocks(offerBlocks(m.Text)...))
		} else {
			opts = append(opts, slack.MsgOptionText(m.Text, false))
		}
		if threadTS != "" {
			opts = append(opts, slack.MsgOptionTS(threadTS))
		}

		if _, _, err := c.api.PostMessage(channel, opts...); err != nil {
			c.logger.Error("slack send failed", "channel", channel, "error", err)
		}
	}
}

func offerBlocks(text string) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.PlainTextType, text, false, false), nil, nil),
		slack.NewActionBlock("ticket_offer",
			slack.NewButtonBlockElement(actionConfirm, "confirm",
				slack.NewTextBlockObject(slack.PlainTextType, "Yes, create a ticket", false, false)),
			slack.NewButtonBlockElement(actionDecline, "decline",
				slack.NewTextBlockObject(slack.PlainTextType, "No, thanks", false, false)),
		),
	}
}

func (c *Connector) isAllowedChannel(channel string) bool {
	if len(c.config.Channels) == 0 {
		return true
	}
	for _, ch := range c.config.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}

func sessionKey(chatID string) string {
	return "slack:" + chatID
}

// StripMention removes the <@BOTID> mention from message text.
func StripMention(text, botID string) string {
	mention := fmt.Sprintf("<@%s>", botID)
	text = strings.Replace(text, mention, "", 1)
	return strings.TrimSpace(text)
}
