package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/shepherd/internal/db"
	"github.com/evcraddock/shepherd/internal/validate"
)

// Repository provides CRUD operations for members.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

// NewRepository creates a member repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

const selectColumns = `id, first_name, last_name, email, phone, created_at`

// Add validates and stores a new member with a generated ID.
func (r *Repository) Add(ctx context.Context, m Member) (*Member, error) {
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = strings.TrimSpace(m.Phone)

	if err := validate.Struct(m); err != nil {
		return nil, err
	}

	m.ID = uuid.NewString()
	m.CreatedAt = r.now().UTC().Truncate(time.Second)

	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO members (id, first_name, last_name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		m.ID, m.FirstName, m.LastName, m.Email, m.Phone, db.FormatTime(m.CreatedAt),
	)
	if err != nil {
		slog.Error("Member insert failed", "error", err)
		return nil, fmt.Errorf("inserting member: %w", err)
	}

	slog.Debug("Member added", "id", m.ID)
	return &m, nil
}

// GetByID returns a member by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Member, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM members WHERE id = ?", selectColumns))
	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying member %s: %w", id, err)
	}
	return m, nil
}

// List returns members whose first name, last name or email contains search
// (case-insensitive), ordered by last then first name. Empty search lists all.
func (r *Repository) List(ctx context.Context, search string) (members []*Member, err error) {
	query := fmt.Sprintf("SELECT %s FROM members", selectColumns)
	var args []interface{}

	if s := strings.TrimSpace(search); s != "" {
		query += ` WHERE LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`
		pattern := db.ContainsPattern(s)
		args = append(args, pattern, pattern, pattern)
	}
	query += " ORDER BY LOWER(last_name), LOWER(first_name), id"

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating members: %w", err)
	}

	return members, nil
}

// Delete removes a member by ID. Their follow-ups cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM members WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}

	slog.Info("Member deleted", "id", id)
	return nil
}

func scanMember(row interface{ Scan(...interface{}) error }) (*Member, error) {
	var m Member
	var createdAt string
	if err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &createdAt); err != nil {
		return nil, err
	}
	t, err := db.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = t
	return &m, nil
}
