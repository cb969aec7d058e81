package followup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/shepherd/internal/db"
)

// Repository provides CRUD and query operations for follow-ups.
type Repository struct {
	db *db.DB
}

// NewRepository creates a follow-up repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

const insertSQL = `INSERT INTO follow_ups
	(id, member_id, assigned_to_id, assigned_to_name, reason, reason_other, priority, method, status,
	 due_date, completed_at, initial_notes, follow_up_notes, outcome, requires_follow_up,
	 next_follow_up_date, previous_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateSQL = `UPDATE follow_ups SET
	assigned_to_id = ?, assigned_to_name = ?, reason = ?, reason_other = ?, priority = ?, method = ?,
	status = ?, due_date = ?, completed_at = ?, initial_notes = ?, follow_up_notes = ?, outcome = ?,
	requires_follow_up = ?, next_follow_up_date = ?, updated_at = ?
	WHERE id = ?`

const selectColumns = `f.id, f.member_id, m.first_name, m.last_name, f.assigned_to_id, f.assigned_to_name,
	f.reason, f.reason_other, f.priority, f.method, f.status, f.due_date, f.completed_at,
	f.initial_notes, f.follow_up_notes, f.outcome, f.requires_follow_up, f.next_follow_up_date,
	f.previous_id, f.created_at, f.updated_at`

const fromSQL = ` FROM follow_ups f JOIN members m ON m.id = f.member_id`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Insert stores a new follow-up. The caller assigns ID and timestamps.
func (r *Repository) Insert(ctx context.Context, f *FollowUp) error {
	if err := r.insert(ctx, r.db, f); err != nil {
		return storeErr("inserting follow-up", err)
	}
	return nil
}

func (r *Repository) insert(ctx context.Context, ex execer, f *FollowUp) error {
	_, err := ex.ExecContext(ctx, r.db.Rebind(insertSQL),
		f.ID, f.MemberID, f.AssignedToID, f.AssignedToName, string(f.Reason), f.ReasonOther,
		string(f.Priority), string(f.Method), string(f.Status),
		db.FormatTime(f.DueDate), db.NullTime(f.CompletedAt),
		f.InitialNotes, f.FollowUpNotes, f.Outcome, boolToInt(f.RequiresFollowUp),
		db.NullTime(f.NextFollowUpDate), nilIfEmpty(f.PreviousID),
		db.FormatTime(f.CreatedAt), db.FormatTime(f.UpdatedAt),
	)
	return err
}

// GetByID returns a follow-up with its member's name.
func (r *Repository) GetByID(ctx context.Context, id string) (*FollowUp, error) {
	query := r.db.Rebind("SELECT " + selectColumns + fromSQL + " WHERE f.id = ?")
	f, err := scanFollowUp(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("follow-up %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("querying follow-up %s", id), err)
	}
	return f, nil
}

// Update writes every mutable column of f in a single statement.
// MemberID, PreviousID and CreatedAt are never rewritten.
func (r *Repository) Update(ctx context.Context, f *FollowUp) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(updateSQL),
		f.AssignedToID, f.AssignedToName, string(f.Reason), f.ReasonOther,
		string(f.Priority), string(f.Method), string(f.Status),
		db.FormatTime(f.DueDate), db.NullTime(f.CompletedAt),
		f.InitialNotes, f.FollowUpNotes, f.Outcome, boolToInt(f.RequiresFollowUp),
		db.NullTime(f.NextFollowUpDate), db.FormatTime(f.UpdatedAt),
		f.ID,
	)
	if err != nil {
		return storeErr("updating follow-up", err)
	}

	return expectOneRow(result, f.ID)
}

// Delete removes a follow-up by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM follow_ups WHERE id = ?"), id)
	if err != nil {
		return storeErr("deleting follow-up", err)
	}

	return expectOneRow(result, id)
}

// InsertNext stores next and clears requires_follow_up on the follow-up it
// was scheduled from, in one transaction.
func (r *Repository) InsertNext(ctx context.Context, next *FollowUp, updatedAt time.Time) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("beginning transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
			}
		}
	}()

	result, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE follow_ups SET requires_follow_up = 0, updated_at = ? WHERE id = ? AND requires_follow_up = 1`),
		db.FormatTime(updatedAt), next.PreviousID,
	)
	if err != nil {
		return storeErr("clearing requires_follow_up", err)
	}
	// Zero rows means another caller scheduled it first.
	if err := expectOneRow(result, next.PreviousID); err != nil {
		return err
	}

	if err := r.insert(ctx, tx, next); err != nil {
		return storeErr("inserting next follow-up", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("committing transaction", err)
	}
	return nil
}

// List returns the follow-ups matching f, sorted by status order then due
// date, windowed by f.Skip and f.Take. now anchors the overdue filter.
func (r *Repository) List(ctx context.Context, f Filter, now time.Time) (items []*FollowUp, err error) {
	where, args := f.where(now)
	query := "SELECT " + selectColumns + fromSQL + where + orderBySQL
	if f.Take > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Take, f.Skip)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, storeErr("listing follow-ups", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = storeErr("closing rows", closeErr)
		}
	}()

	for rows.Next() {
		fu, err := scanFollowUp(rows)
		if err != nil {
			return nil, storeErr("scanning follow-up", err)
		}
		items = append(items, fu)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating follow-ups", err)
	}

	return items, nil
}

// Count returns how many follow-ups match f, ignoring pagination.
func (r *Repository) Count(ctx context.Context, f Filter, now time.Time) (int, error) {
	where, args := f.where(now)
	var n int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*)"+fromSQL+where), args...).Scan(&n); err != nil {
		return 0, storeErr("counting follow-ups", err)
	}
	return n, nil
}

// where builds the WHERE clause for f. Every condition is ANDed; search is
// an OR across the text columns and the member's names.
func (f Filter) where(now time.Time) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if s := strings.TrimSpace(f.Search); s != "" {
		cols := []string{"f.assigned_to_name", "f.initial_notes", "f.follow_up_notes", "m.first_name", "m.last_name"}
		likes := make([]string, len(cols))
		pattern := db.ContainsPattern(s)
		for i, c := range cols {
			likes[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
			args = append(args, pattern)
		}
		conditions = append(conditions, "("+strings.Join(likes, " OR ")+")")
	}
	if f.Status != "" {
		conditions = append(conditions, "f.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		conditions = append(conditions, "f.priority = ?")
		args = append(args, string(f.Priority))
	}
	if f.AssignedToID != "" {
		conditions = append(conditions, "f.assigned_to_id = ?")
		args = append(args, f.AssignedToID)
	}
	if f.MemberID != "" {
		conditions = append(conditions, "f.member_id = ?")
		args = append(args, f.MemberID)
	}
	if f.Overdue {
		cond, a := overdueCondition(now)
		conditions = append(conditions, cond)
		args = append(args, a...)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// overdueCondition is the SQL form of IsOverdue.
func overdueCondition(now time.Time) (string, []interface{}) {
	placeholders := make([]string, len(OpenStatuses))
	args := []interface{}{db.FormatTime(now)}
	for i, s := range OpenStatuses {
		placeholders[i] = "?"
		args = append(args, string(s))
	}
	return "(f.due_date < ? AND f.status IN (" + strings.Join(placeholders, ", ") + "))", args
}

// orderBySQL sorts by status declaration order, then due date.
var orderBySQL = func() string {
	var b strings.Builder
	b.WriteString(" ORDER BY CASE f.status")
	for i, s := range AllStatuses {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", s, i)
	}
	fmt.Fprintf(&b, " ELSE %d END, f.due_date ASC, f.created_at ASC, f.id ASC", len(AllStatuses))
	return b.String()
}()

func scanFollowUp(row interface{ Scan(...interface{}) error }) (*FollowUp, error) {
	var f FollowUp
	var firstName, lastName, dueDate, createdAt, updatedAt string
	var completedAt, nextDate, previousID sql.NullString
	var requires int64
	var reason, priority, method, status string

	err := row.Scan(
		&f.ID, &f.MemberID, &firstName, &lastName, &f.AssignedToID, &f.AssignedToName,
		&reason, &f.ReasonOther, &priority, &method, &status, &dueDate, &completedAt,
		&f.InitialNotes, &f.FollowUpNotes, &f.Outcome, &requires, &nextDate,
		&previousID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.MemberName = strings.TrimSpace(firstName + " " + lastName)
	f.Reason = Reason(reason)
	f.Priority = Priority(priority)
	f.Method = Method(method)
	f.Status = Status(status)
	f.RequiresFollowUp = requires != 0
	f.PreviousID = previousID.String

	if f.DueDate, err = db.ParseTime(dueDate); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = db.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if f.CompletedAt, err = db.ParseNullTime(completedAt); err != nil {
		return nil, err
	}
	if f.NextFollowUpDate, err = db.ParseNullTime(nextDate); err != nil {
		return nil, err
	}

	return &f, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("checking rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("follow-up %s: %w", id, ErrNotFound)
	}
	return nil
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
