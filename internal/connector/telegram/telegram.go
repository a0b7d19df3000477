package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/syntaxsamurai/supportdesk/internal/chat"
	"github.com/syntaxsamurai/supportdesk/internal/connector"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

const (
	callbackConfirm = "ticket_yes"
	callbackDecline = "ticket_no"
)

// Config holds Telegram connector configuration.
type Config struct {
	Token     string  // Bot token from @BotFather
	AllowFrom []int64 // Allowed Telegram user IDs (empty = allow all)
}

// Connector implements the connector.Connector interface for Telegram.
type Connector struct {
	bot    *tgbotapi.BotAPI
	config Config
	desk   connector.Desk
	logger *slog.Logger
	cancel context.CancelFunc
}

// New creates a new Telegram connector.
func New(cfg Config, desk connector.Desk, logger *slog.Logger) (*Connector, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Connector{
		bot:    bot,
		config: cfg,
		desk:   desk,
		logger: logger,
	}, nil
}

func (c *Connector) Name() string { return "telegram" }

// Start begins long-polling for updates. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := c.bot.GetUpdatesChan(u)

	c.logger.Info("telegram connector started", "bot", c.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			switch {
			case update.CallbackQuery != nil:
				c.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				c.handleMessage(ctx, update.Message)
			}

		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.logger.Info("telegram connector stopped")
			return ctx.Err()
		}
	}
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Connector) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Access control
	if len(c.config.AllowFrom) > 0 && !contains(c.config.AllowFrom, userID) {
		c.logger.Warn("unauthorized user", "user_id", userID, "username", msg.From.UserName)
		return
	}

	session := sessionKey(chatID)
	user := identity(msg.From)

	if msg.IsCommand() {
		c.handleCommand(ctx, msg, session, user)
		return
	}

	text := msg.Text
	if text == "" && msg.Caption != "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}

	// Typing indicator while the reply is composed
	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	c.bot.Send(typing)

	msgs, err := c.desk.SendMessage(ctx, session, user, text)
	if err != nil {
		c.logger.Error("send message failed", "chat_id", chatID, "error", err)
		return
	}
	c.relay(chatID, msgs)
}

func (c *Connector) handleCommand(ctx context.Context, msg *tgbotapi.Message, session string, user support.Identity) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "clear":
		msgs := c.desk.ClearChat(session)
		if msgs == nil {
			// First contact: opening the session emits the greeting.
			msgs = c.desk.OpenChat(session, user)
		}
		c.relay(chatID, msgs)

	case "help":
		help := strings.Join([]string{
			"I can help with login trouble, crashes, slow performance, data recovery, installs and feature requests.",
			"",
			"/start — Start over with a fresh conversation",
			"/clear — Same as /start",
			"/help — Show this help message",
			"",
			"Just describe your problem to begin!",
		}, "\n")
		reply := tgbotapi.NewMessage(chatID, help)
		c.bot.Send(reply)

	default:
		reply := tgbotapi.NewMessage(chatID, "Unknown command. Try /help.")
		c.bot.Send(reply)
	}
}

func (c *Connector) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	session := sessionKey(chatID)

	var msgs []support.Message
	var err error
	switch cb.Data {
	case callbackConfirm:
		_, msgs, err = c.desk.ConfirmTicket(ctx, session)
	case callbackDecline:
		msgs, err = c.desk.DeclineTicket(session)
	default:
		return
	}

	// Acknowledge the button press either way.
	c.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	if err != nil {
		if errors.Is(err, chat.ErrNoPendingTicket) {
			return
		}
		c.logger.Error("callback failed", "chat_id", chatID, "data", cb.Data, "error", err)
		return
	}

	// Remove the buttons from the offer message once answered.
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	c.bot.Send(edit)

	c.relay(chatID, msgs)
}

// relay delivers assistant messages to the chat, skipping user echoes and
// typing placeholders. Ticket offers carry confirm/decline buttons and
// replies with suggestions carry a one-time reply keyboard.
func (c *Connector) relay(chatID int64, msgs []support.Message) {
	for _, m := range msgs {
		if m.Sender != support.SenderAssistant || m.IsTyping {
			continue
		}

		out := tgbotapi.NewMessage(chatID, m.Text)
		switch {
		case m.IsTicketSuggestion:
			out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Yes, create a ticket", callbackConfirm),
					tgbotapi.NewInlineKeyboardButtonData("No, thanks", callbackDecline),
				),
			)
		case len(m.Suggestions) > 0:
			rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Suggestions))
			for _, s := range m.Suggestions {
				rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(s)))
			}
			kb := tgbotapi.NewReplyKeyboard(rows...)
			kb.OneTimeKeyboard = true
			kb.ResizeKeyboard = true
			out.ReplyMarkup = kb
		}

		if _, err := c.bot.Send(out); err != nil {
			c.logger.Error("telegram send failed", "chat_id", chatID, "error", err)
		}
	}
}

func sessionKey(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

func identity(from *tgbotapi.User) support.Identity {
	if from == nil {
		return support.Identity{}
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return support.Identity{
		ID:   "tg_" + strconv.FormatInt(from.ID, 10),
		Name: name,
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
