package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splity/internal/models"
	"github.com/mmynk/splity/internal/storage"
)

const inviteCodeLength = 6

// GroupService manages groups and their participants.
type GroupService struct {
	store           storage.Store
	defaultCurrency string
}

// NewGroupService creates a new GroupService with the given storage backend.
// Groups created without a currency get defaultCurrency.
func NewGroupService(store storage.Store, defaultCurrency string) *GroupService {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &GroupService{store: store, defaultCurrency: strings.ToUpper(defaultCurrency)}
}

// CreateGroup creates a new group and adds its creator as the first participant.
func (s *GroupService) CreateGroup(ctx context.Context, name, description, currency, creator string) (*models.Group, *models.Participant, error) {
	slog.Info("CreateGroup request received", "name", name, "currency", currency, "creator", creator)

	name = strings.TrimSpace(name)
	creator = strings.TrimSpace(creator)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: group name cannot be empty", ErrInvalidInput)
	}
	if creator == "" {
		return nil, nil, fmt.Errorf("%w: creator name cannot be empty", ErrInvalidInput)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !models.IsCurrencyCode(currency) {
		return nil, nil, fmt.Errorf("%w: invalid currency '%s': must be a 3-letter code", ErrInvalidInput, currency)
	}

	existing, err := s.store.GetGroupByName(ctx, name, creator)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, fmt.Errorf("%w: %s already has a group named '%s'", ErrDuplicateGroup, creator, existing.Name)
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(description),
		Currency:    currency,
		CreatedBy:   creator,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, nil, fmt.Errorf("failed to create group: %w", err)
	}

	member := &models.Participant{GroupID: group.ID, Name: creator}
	if err := s.store.AddParticipant(ctx, member); err != nil {
		slog.Error("CreateGroup failed - could not add creator", "group_id", group.ID, "error", err)
		return nil, nil, fmt.Errorf("failed to add creator: %w", err)
	}

	slog.Info("Group created", "group_id", group.ID, "invite_code", group.InviteCode)
	return group, member, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}
	return group, nil
}

// AddParticipant adds a named participant to a group.
func (s *GroupService) AddParticipant(ctx context.Context, groupID, name string) (*models.Participant, error) {
	slog.Info("AddParticipant request received", "group_id", groupID, "name", name)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: participant name cannot be empty", ErrInvalidInput)
	}

	participant := &models.Participant{GroupID: groupID, Name: name}
	if err := s.store.AddParticipant(ctx, participant); err != nil {
		slog.Error("AddParticipant failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Participant added", "group_id", groupID, "participant_id", participant.ID)
	return participant, nil
}

// JoinGroup adds a participant to the group identified by an invite code.
func (s *GroupService) JoinGroup(ctx context.Context, inviteCode, name string) (*models.Group, *models.Participant, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	slog.Info("JoinGroup request received", "invite_code", code, "name", name)

	if len(code) != inviteCodeLength {
		return nil, nil, fmt.Errorf("%w: invite code must be %d characters", ErrInvalidInput, inviteCodeLength)
	}

	group, err := s.store.GetGroupByInviteCode(ctx, code)
	if err != nil {
		slog.Error("JoinGroup failed - unknown invite code", "invite_code", code, "error", err)
		return nil, nil, err
	}

	participant, err := s.AddParticipant(ctx, group.ID, name)
	if err != nil {
		return nil, nil, err
	}
	return group, participant, nil
}

// ListParticipants returns the participants of a group.
func (s *GroupService) ListParticipants(ctx context.Context, groupID string) ([]*models.Participant, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, groupID)
}
