package triage

import (
	"testing"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

func ticketWithText(id, subject, text string) *support.Ticket {
	return &support.Ticket{
		ID:      id,
		Subject: subject,
		Text:    text,
		Status:  support.TicketOpen,
	}
}

func TestFindSimilar_Qualification(t *testing.T) {
	tickets := []*support.Ticket{
		ticketWithText("T1", "Application keeps crashing", "The application keeps crashing when I save."),
		ticketWithText("T2", "Printer offline", "My printer shows offline no matter what."),
	}

	// Shares "application" and "crashing": two significant words, qualifies.
	got := FindSimilar("application crashing on startup", tickets)
	if len(got) != 1 || got[0].ID != "T1" {
		t.Fatalf("got %d results, want exactly T1", len(got))
	}

	// Shares only "printer": one significant word, excluded.
	got = FindSimilar("printer makes a weird noise", tickets)
	if len(got) != 0 {
		t.Fatalf("got %d results, want none", len(got))
	}
}

func TestFindSimilar_ShortTokensIgnored(t *testing.T) {
	tickets := []*support.Ticket{
		ticketWithText("T1", "App is bad", "the app and the settings are bad"),
	}

	// "the", "app", "and", "are" are all <= 3 characters and never count.
	got := FindSimilar("the app and are", tickets)
	if len(got) != 0 {
		t.Fatalf("short tokens counted toward similarity: %d results", len(got))
	}
}

func TestFindSimilar_CapAndOrder(t *testing.T) {
	tickets := []*support.Ticket{
		ticketWithText("T1", "Export button missing", "The export button is missing from the toolbar."),
		ticketWithText("T2", "No match here", "Totally unrelated content."),
		ticketWithText("T3", "Export fails", "Export to spreadsheet fails with missing data."),
		ticketWithText("T4", "Export missing columns", "Some columns are missing after export."),
		ticketWithText("T5", "Export missing rows", "Rows go missing during export."),
	}

	got := FindSimilar("export is missing things", tickets)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3 (cap)", len(got))
	}
	for i, want := range []string{"T1", "T3", "T4"} {
		if got[i].ID != want {
			t.Errorf("result[%d] = %s, want %s (store order)", i, got[i].ID, want)
		}
	}
}

func TestFindSimilar_EmptyInputs(t *testing.T) {
	if got := FindSimilar("anything at all here", nil); len(got) != 0 {
		t.Errorf("nil tickets: got %d results", len(got))
	}
	tickets := []*support.Ticket{ticketWithText("T1", "subject words", "body words")}
	if got := FindSimilar("", tickets); len(got) != 0 {
		t.Errorf("empty query: got %d results", len(got))
	}
}
