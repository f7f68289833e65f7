// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splity/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for group, bill and share storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group.
	// ID, InviteCode and CreatedAt are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by its ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetGroupByInviteCode retrieves a group by its invite code.
	GetGroupByInviteCode(ctx context.Context, code string) (*models.Group, error)

	// GetGroupByName finds a group by case-insensitive name among those created by createdBy.
	// Returns nil and no error when there is none.
	GetGroupByName(ctx context.Context, name, createdBy string) (*models.Group, error)

	// AddParticipant adds a participant to an existing group.
	// ID and CreatedAt are populated by the store when empty.
	AddParticipant(ctx context.Context, participant *models.Participant) error

	// ListParticipants returns a group's participants, oldest first.
	ListParticipants(ctx context.Context, groupID string) ([]*models.Participant, error)

	// CreateBill persists a bill together with its shares in one transaction.
	// Each share's BillID is set to the new bill's ID.
	CreateBill(ctx context.Context, bill *models.Bill, shares []models.Share) error

	// GetBillByDescription finds a bill in a group by case-insensitive description.
	// Returns nil and no error when there is none.
	GetBillByDescription(ctx context.Context, groupID, description string) (*models.Bill, error)

	// ListBills returns every bill of a group, oldest first.
	ListBills(ctx context.Context, groupID string) ([]*models.Bill, error)

	// ListShares returns every share of every bill in a group.
	ListShares(ctx context.Context, groupID string) ([]*models.Share, error)

	// MarkSharePaid flags one participant's share of a bill as paid.
	MarkSharePaid(ctx context.Context, billID, participantID string) error

	// Close releases any resources held by the store.
	Close() error
}
