package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syntaxsamurai/supportdesk/internal/config"
	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "health":
		cmdHealth()
	case "chat":
		cmdChat(os.Args[2:])
	case "tickets":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: deskctl tickets <list|show>")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "list":
			cmdTicketsList(os.Args[3:])
		case "show":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: deskctl tickets show <id>")
				os.Exit(1)
			}
			cmdTicketsShow(os.Args[3])
		default:
			fmt.Fprintf(os.Stderr, "unknown tickets subcommand: %s\n", os.Args[2])
			os.Exit(1)
		}
	case "knowledge":
		cmdKnowledge(os.Args[2:])
	case "logs":
		cmdLogs(os.Args[2:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: deskctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// --- chat command ---

type chatResponse struct {
	Messages []support.Message `json:"messages"`
	Ticket   *support.Ticket   `json:"ticket,omitempty"`
}

func cmdChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	session := fs.String("session", "", "Session key (default: a fresh cli session)")
	name := fs.String("name", "", "Customer name")
	email := fs.String("email", "", "Customer email")
	fs.Parse(args)

	if *session == "" {
		*session = "cli:" + uuid.NewString()[:8]
	}

	// Replay anything the session already has.
	if body, err := apiGet("/api/chat/" + *session + "/history"); err == nil {
		var resp chatResponse
		json.Unmarshal(body, &resp)
		printMessages(resp.Messages)
	}

	fmt.Printf("deskctl chat (session %s, type 'quit' to exit, '/clear' to start over)\n\n", *session)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		var path string
		var payload any
		switch strings.ToLower(line) {
		case "/clear":
			path = "/api/chat/" + *session + "/clear"
		case "yes", "y":
			path = "/api/chat/" + *session + "/confirm"
		case "no", "n":
			path = "/api/chat/" + *session + "/decline"
		default:
			path = "/api/chat/" + *session + "/messages"
			payload = map[string]any{
				"text": line,
				"customer": map[string]string{
					"name":  *name,
					"email": *email,
				},
			}
		}

		body, err := apiPost(path, payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		var resp chatResponse
		json.Unmarshal(body, &resp)
		printMessages(resp.Messages)
		if resp.Ticket != nil {
			fmt.Printf("  [ticket %s created]\n", resp.Ticket.ID)
		}
	}
}

func printMessages(msgs []support.Message) {
	for _, m := range msgs {
		if m.Sender != support.SenderAssistant || m.IsTyping {
			continue
		}
		fmt.Printf("  %s\n", m.Text)
		if m.IsTicketSuggestion {
			fmt.Println("  (answer 'yes' to create the ticket, 'no' to skip)")
		}
		if len(m.Suggestions) > 0 {
			fmt.Printf("  suggestions: %s\n", strings.Join(m.Suggestions, " | "))
		}
	}
}

// --- API client commands ---

func cmdHealth() {
	body, err := apiGet("/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdTicketsList(args []string) {
	fs := flag.NewFlagSet("tickets list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (open|in_progress|resolved|closed)")
	category := fs.String("category", "", "Filter by category (bug|feature|query|general)")
	priority := fs.String("priority", "", "Filter by priority (low|medium|high|critical)")
	search := fs.String("q", "", "Text search on subject and description")
	limit := fs.Int("limit", 50, "Max results")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *status != "" {
		query += "&status=" + url.QueryEscape(*status)
	}
	if *category != "" {
		query += "&category=" + url.QueryEscape(*category)
	}
	if *priority != "" {
		query += "&priority=" + url.QueryEscape(*priority)
	}
	if *search != "" {
		query += "&q=" + url.QueryEscape(*search)
	}

	body, err := apiGet("/api/tickets" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var tickets []map[string]any
	json.Unmarshal(body, &tickets)
	for _, t := range tickets {
		fmt.Printf("%-12s %-12s %-10s %s\n", t["ticket_id"], t["status"], t["priority"], t["subject"])
	}
}

func cmdTicketsShow(id string) {
	body, err := apiGet("/api/tickets/" + id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdKnowledge(args []string) {
	fs := flag.NewFlagSet("knowledge", flag.ExitOnError)
	query := fs.String("q", "", "Search query")
	fs.Parse(args)

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: deskctl knowledge -q <query>")
		os.Exit(1)
	}

	body, err := apiGet("/api/knowledge?q=" + url.QueryEscape(*query))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var articles []map[string]any
	json.Unmarshal(body, &articles)
	for _, a := range articles {
		fmt.Printf("%s\n  %s\n", a["title"], a["url"])
	}
}

func cmdLogs(args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	level := fs.String("level", "", "Minimum level (info|warn|error)")
	limit := fs.Int("limit", 100, "Max entries")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *level != "" {
		query += "&level=" + url.QueryEscape(*level)
	}

	body, err := apiGet("/api/logs" + query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var entries []map[string]any
	json.Unmarshal(body, &entries)
	for _, e := range entries {
		fmt.Printf("%-25s %-5s %s\n", e["time"], e["level"], e["message"])
	}
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- Helpers ---

func apiGet(path string) ([]byte, error) {
	return apiDo("GET", path, nil)
}

func apiPost(path string, payload any) ([]byte, error) {
	return apiDo("POST", path, payload)
}

func apiDo(method, path string, payload any) ([]byte, error) {
	base := envOr("DESK_API_URL", "http://localhost:8080")

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, base+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := os.Getenv("DESK_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("deskctl - support desk management CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  health               Check daemon health")
	fmt.Println("  chat                 Interactive triage chat (--session, --name, --email)")
	fmt.Println("  tickets list         List tickets (--status, --category, --priority, --q, --limit)")
	fmt.Println("  tickets show <id>    Show ticket details")
	fmt.Println("  knowledge -q <text>  Search knowledge-base articles")
	fmt.Println("  logs                 Show recent daemon logs (--level, --limit)")
	fmt.Println("  config validate <p>  Validate config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  DESK_API_URL  Daemon URL (default: http://localhost:8080)")
	fmt.Println("  DESK_API_KEY  API key for authentication")
}
