package ticket

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/syntaxsamurai/supportdesk/pkg/support"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket store: open: %w", err)
	}

	// WAL mode for better concurrent reads from the similarity scan.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket store: wal: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			ticket_id      TEXT PRIMARY KEY,
			subject        TEXT NOT NULL,
			text           TEXT NOT NULL,
			category       TEXT NOT NULL DEFAULT 'general',
			priority       TEXT NOT NULL DEFAULT 'low',
			status         TEXT NOT NULL DEFAULT 'open',
			customer_name  TEXT NOT NULL DEFAULT '',
			customer_id    TEXT NOT NULL DEFAULT '',
			customer_email TEXT NOT NULL DEFAULT '',
			assigned_to    TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
		CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id);
	`)
	if err != nil {
		return fmt.Errorf("ticket store: migrate: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for cleanup in tests.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Create(t *support.Ticket) error {
	_, err := s.db.Exec(`
		INSERT INTO tickets (ticket_id, subject, text, category, priority, status,
			customer_name, customer_id, customer_email, assigned_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Subject, t.Text, string(t.Category), string(t.Priority), string(t.Status),
		t.CustomerName, t.CustomerID, t.CustomerEmail, t.AssignedTo,
		t.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("ticket store: create: %w", err)
	}
	return nil
}

const ticketColumns = `ticket_id, subject, text, category, priority, status,
	customer_name, customer_id, customer_email, assigned_to, created_at`

func (s *SQLiteStore) Get(id string) (*support.Ticket, error) {
	row := s.db.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ticket store: %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("ticket store: get: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) List(filter Filter) ([]*support.Ticket, error) {
	query, args := buildWhere(`SELECT `+ticketColumns+` FROM tickets WHERE 1=1`, filter)
	// Oldest first: list order is the store order seen by similarity matching.
	query += " ORDER BY created_at, ticket_id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ticket store: list: %w", err)
	}
	defer rows.Close()

	var tickets []*support.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("ticket store: list scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) Count(filter Filter) (int, error) {
	query, args := buildWhere("SELECT COUNT(*) FROM tickets WHERE 1=1", filter)
	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ticket store: count: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) UpdateStatus(id string, status support.TicketStatus) error {
	res, err := s.db.Exec(`UPDATE tickets SET status = ? WHERE ticket_id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("ticket store: update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ticket store: %q: %w", id, ErrNotFound)
	}
	return nil
}

func buildWhere(query string, filter Filter) (string, []any) {
	var args []any
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}
	if filter.Priority != nil {
		query += " AND priority = ?"
		args = append(args, string(*filter.Priority))
	}
	if filter.CustomerID != "" {
		query += " AND customer_id = ?"
		args = append(args, filter.CustomerID)
	}
	if filter.Query != "" {
		query += " AND (subject LIKE ? OR text LIKE ?)"
		pattern := fmt.Sprintf("%%%s%%", filter.Query)
		args = append(args, pattern, pattern)
	}
	return query, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*support.Ticket, error) {
	var t support.Ticket
	var category, priority, status, createdAt string
	err := row.Scan(&t.ID, &t.Subject, &t.Text, &category, &priority, &status,
		&t.CustomerName, &t.CustomerID, &t.CustomerEmail, &t.AssignedTo, &createdAt)
	if err != nil {
		return nil, err
	}
	t.Category = support.Category(category)
	t.Priority = support.Priority(priority)
	t.Status = support.TicketStatus(status)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return &t, nil
}
