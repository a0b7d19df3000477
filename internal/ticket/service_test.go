package ticket

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

func newTestService(t *testing.T) (*Service, *SQLiteStore) {
	t.Helper()
	store := newTestStore(t)
	return NewService(store, nil), store
}

func TestCreateTicketFromDraft(t *testing.T) {
	svc, store := newTestService(t)

	draft := support.Draft{
		Subject:  "App crashes on save",
		Text:     "My app crashes every time I save, affects everyone in production",
		Category: support.CategoryBug,
		Priority: support.PriorityCritical,
	}
	requester := support.Identity{ID: "C12345", Name: "John Smith", Email: "john@example.com"}

	created, err := svc.CreateTicket(context.Background(), draft, requester)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(created.ID, "T") {
		t.Errorf("ticket id %q should carry the T prefix", created.ID)
	}
	if created.Status != support.TicketOpen {
		t.Errorf("status = %q, want open", created.Status)
	}
	if created.CustomerName != "John Smith" {
		t.Errorf("customer name = %q", created.CustomerName)
	}

	// Persisted, not just returned.
	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("get persisted: %v", err)
	}
	if got.Subject != draft.Subject || got.Priority != support.PriorityCritical {
		t.Errorf("persisted ticket = %+v", got)
	}
}

func TestCreateTicketAnonymousFallback(t *testing.T) {
	svc, _ := newTestService(t)

	draft := support.Draft{
		Subject:  "Feature: dark mode",
		Text:     "Could you implement dark mode",
		Category: support.CategoryFeature,
		Priority: support.PriorityLow,
	}

	created, err := svc.CreateTicket(context.Background(), draft, support.Identity{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CustomerName != "Anonymous User" {
		t.Errorf("customer name = %q, want Anonymous User", created.CustomerName)
	}
	if created.CustomerEmail != "unknown@example.com" {
		t.Errorf("customer email = %q", created.CustomerEmail)
	}
	if !strings.HasPrefix(created.CustomerID, "user_") {
		t.Errorf("customer id = %q, want a generated user_ id", created.CustomerID)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateTicket(context.Background(), support.Draft{Text: "body only"}, support.Identity{})
	if err == nil {
		t.Fatal("expected error for draft without subject")
	}
}

func TestCreateTicketHonorsContext(t *testing.T) {
	svc, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.CreateTicket(ctx, support.Draft{
		Subject: "s", Text: "t",
		Category: support.CategoryBug, Priority: support.PriorityLow,
	}, support.Identity{})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestListTickets(t *testing.T) {
	svc, store := newTestService(t)

	base := time.Now()
	for i, id := range []string{"T001", "T002"} {
		if err := store.Create(sampleTicket(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := svc.ListTickets(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "T001" {
		t.Fatalf("list = %d tickets, want 2 in store order", len(got))
	}
}
