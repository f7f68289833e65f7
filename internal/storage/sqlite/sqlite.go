// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	driver "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splity/internal/models"
	"github.com/mmynk/splity/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys are a per-connection setting, so request them in the DSN
	// for every connection the pool opens.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// maxInviteCodeAttempts bounds how often CreateGroup draws a fresh invite code
// after a collision.
const maxInviteCodeAttempts = 5

// CreateGroup persists a new group to the database.
// A generated invite code that collides with an existing one is redrawn.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	generated := group.InviteCode == ""
	for attempt := 1; ; attempt++ {
		if generated {
			group.InviteCode = newInviteCode()
		}

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO groups (id, name, description, currency, invite_code, created_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.Name, group.Description, group.Currency, group.InviteCode, group.CreatedBy, group.CreatedAt,
		)
		if err == nil {
			return nil
		}
		if !generated || !isInviteCodeConflict(err) || attempt == maxInviteCodeAttempts {
			if generated {
				group.InviteCode = ""
			}
			return fmt.Errorf("failed to insert group: %w", err)
		}
	}
}

// isInviteCodeConflict reports whether err is a UNIQUE violation on groups.invite_code.
func isInviteCodeConflict(err error) bool {
	var sqliteErr *driver.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed: groups.invite_code")
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, "id", groupID)
}

// GetGroupByInviteCode retrieves a group by its invite code.
// Codes are matched case-insensitively.
func (s *SQLiteStore) GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	return s.getGroup(ctx, "invite_code", strings.ToUpper(strings.TrimSpace(code)))
}

// GetGroupByName finds a group by name and creator, ignoring the name's case.
func (s *SQLiteStore) GetGroupByName(ctx context.Context, name, createdBy string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, currency, invite_code, created_by, created_at
		 FROM groups WHERE lower(name) = lower(?) AND created_by = ?
		 ORDER BY created_at, id LIMIT 1`,
		name, createdBy,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by name: %w", err)
	}
	return group, nil
}

func (s *SQLiteStore) getGroup(ctx context.Context, column, value string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, currency, invite_code, created_by, created_at
		 FROM groups WHERE `+column+` = ?`,
		value,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

func scanGroup(row *sql.Row) (*models.Group, error) {
	group := &models.Group{}
	err := row.Scan(&group.ID, &group.Name, &group.Description, &group.Currency, &group.InviteCode, &group.CreatedBy, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// newInviteCode returns six upper-case hex characters taken from a fresh UUID.
// It is a variable so tests can force collisions.
var newInviteCode = func() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
}
