package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name:   "creates new database",
			driver: DriverSQLite,
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "shepherd.db")
			},
		},
		{
			name:   "empty driver defaults to sqlite",
			driver: "",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "shepherd.db")
			},
		},
		{
			name:   "creates nested directories",
			driver: DriverSQLite,
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "shepherd.db")
			},
		},
		{
			name:   "opens existing database",
			driver: DriverSQLite,
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "shepherd.db")
				d, err := Open(DriverSQLite, path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
		{
			name:   "unknown driver",
			driver: "mysql",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "shepherd.db")
			},
			wantErr: true,
		},
		{
			name:   "empty dsn",
			driver: DriverSQLite,
			setup: func(t *testing.T) string {
				return ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(tt.driver, path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if d.Driver != DriverSQLite {
				t.Errorf("driver = %q, want %q", d.Driver, DriverSQLite)
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)

	var fk int
	if err := d.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestUnicodeLower(t *testing.T) {
	d := openTestDB(t)

	tests := []struct {
		in   string
		want string
	}{
		{"ÉLODIE Ñúñez", "élodie ñúñez"},
		{"Père ÁNGEL", "père ángel"},
		{"SMITH", "smith"},
	}

	for _, tt := range tests {
		var got string
		if err := d.QueryRow("SELECT LOWER(?)", tt.in).Scan(&got); err != nil {
			t.Fatalf("select lower: %v", err)
		}
		if got != tt.want {
			t.Errorf("LOWER(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	var n int
	err := d.QueryRow(`SELECT COUNT(*) WHERE LOWER(?) LIKE ? ESCAPE '\'`, "Élodie Ñúñez", ContainsPattern("ÑÚÑEZ")).Scan(&n)
	if err != nil {
		t.Fatalf("select like: %v", err)
	}
	if n != 1 {
		t.Error("accented LIKE search did not match")
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name  string
		table string
		cols  []string
	}{
		{
			name:  "members table exists",
			table: "members",
			cols:  []string{"id", "first_name", "last_name", "email", "phone", "created_at"},
		},
		{
			name:  "follow_ups table exists",
			table: "follow_ups",
			cols: []string{
				"id", "member_id", "assigned_to_id", "assigned_to_name", "reason", "reason_other",
				"priority", "method", "status", "due_date", "completed_at", "initial_notes",
				"follow_up_notes", "outcome", "requires_follow_up", "next_follow_up_date",
				"previous_id", "created_at", "updated_at",
			},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestEnumConstraints(t *testing.T) {
	d := openTestDB(t)
	insertMember(t, d, "m1")

	insert := `INSERT INTO follow_ups
		(id, member_id, assigned_to_id, assigned_to_name, reason, priority, status, due_date, created_at, updated_at)
		VALUES (?, 'm1', 'u1', 'Pastor Dan', ?, ?, ?, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`

	tests := []struct {
		name     string
		reason   string
		priority string
		status   string
		wantErr  bool
	}{
		{"valid row", "SICK", "HIGH", "PENDING", false},
		{"bad reason", "BORED", "HIGH", "PENDING", true},
		{"bad priority", "SICK", "CRITICAL", "PENDING", true},
		{"bad status", "SICK", "HIGH", "DONE", true},
		{"lowercase status", "SICK", "HIGH", "pending", true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Exec(insert, fmt.Sprintf("f-%d", i), tt.reason, tt.priority, tt.status)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)
	insertMember(t, d, "m-cascade")

	for i := 0; i < 3; i++ {
		_, err := d.Exec(
			`INSERT INTO follow_ups (id, member_id, assigned_to_id, assigned_to_name, reason, due_date, created_at, updated_at)
			 VALUES (?, 'm-cascade', 'u1', 'Deacon Sam', 'ABSENT', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`,
			fmt.Sprintf("f-%d", i),
		)
		if err != nil {
			t.Fatalf("insert follow-up %d: %v", i, err)
		}
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM follow_ups WHERE member_id = ?`, "m-cascade").Scan(&count); err != nil {
		t.Fatalf("count follow-ups: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 follow-ups, got %d", count)
	}

	if _, err := d.Exec(`DELETE FROM members WHERE id = ?`, "m-cascade"); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	if err := d.QueryRow(`SELECT COUNT(*) FROM follow_ups WHERE member_id = ?`, "m-cascade").Scan(&count); err != nil {
		t.Fatalf("count follow-ups after delete: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 follow-ups after cascade delete, got %d", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shepherd.db")

	// Open twice; migrations should not fail on second run
	d1, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	d2, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("second open (idempotency): %v", err)
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p) != "shepherd.db" {
		t.Errorf("expected filename shepherd.db, got %s", filepath.Base(p))
	}

	dir := filepath.Base(filepath.Dir(p))
	if dir != ".shepherd" {
		t.Errorf("expected directory .shepherd, got %s", dir)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		in     string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		d := &DB{Driver: tt.driver}
		if got := d.Rebind(tt.in); got != tt.want {
			t.Errorf("Rebind(%s, %q) = %q, want %q", tt.driver, tt.in, got, tt.want)
		}
	}
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Smith", "%smith%"},
		{"50%", `%50\%%`},
		{"first_name", `%first\_name%`},
		{`a\b`, `%a\\b%`},
	}

	for _, tt := range tests {
		if got := ContainsPattern(tt.in); got != tt.want {
			t.Errorf("ContainsPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimeRoundTrip(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	in := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)

	s := FormatTime(in)
	if s != "2026-03-14T14:30:00Z" {
		t.Errorf("FormatTime = %q, want UTC layout", s)
	}

	out, err := ParseTime(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !out.Equal(in) {
		t.Errorf("round trip = %v, want %v", out, in)
	}

	if _, err := ParseTime("2026-03-14"); err == nil {
		t.Error("expected error for date-only value")
	}
}

func TestNullTime(t *testing.T) {
	if NullTime(nil) != nil {
		t.Error("NullTime(nil) should be nil")
	}

	got, err := ParseNullTime(sql.NullString{})
	if err != nil || got != nil {
		t.Errorf("ParseNullTime(invalid) = %v, %v; want nil, nil", got, err)
	}

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err = ParseNullTime(sql.NullString{String: FormatTime(ts), Valid: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got == nil || !got.Equal(ts) {
		t.Errorf("ParseNullTime = %v, want %v", got, ts)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shepherd.db")
	d, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

func insertMember(t *testing.T, d *DB, id string) {
	t.Helper()
	_, err := d.Exec(
		`INSERT INTO members (id, first_name, last_name, created_at) VALUES (?, 'Ada', 'Lovelace', '2026-01-01T00:00:00Z')`,
		id,
	)
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
