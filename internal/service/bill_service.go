package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splity/internal/calculator"
	"github.com/mmynk/splity/internal/models"
	"github.com/mmynk/splity/internal/storage"
)

// BillService records bills and their even split into shares.
type BillService struct {
	store storage.Store
}

// NewBillService creates a new BillService with the given storage backend.
func NewBillService(store storage.Store) *BillService {
	return &BillService{store: store}
}

// AddBill records that payerID paid amount for the group, split evenly among oweMembers.
// The payer is only charged a share when listed in oweMembers.
func (s *BillService) AddBill(ctx context.Context, groupID, payerID, description string, amount float64, oweMembers []string) (*models.Bill, []models.Share, error) {
	slog.Info("AddBill request received",
		"group_id", groupID,
		"payer_id", payerID,
		"amount", amount,
		"owe_members_count", len(oweMembers),
	)

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil, fmt.Errorf("%w: bill description cannot be empty", ErrInvalidInput)
	}

	members, err := s.memberSet(ctx, groupID)
	if err != nil {
		slog.Error("AddBill failed - could not load group", "group_id", groupID, "error", err)
		return nil, nil, err
	}
	if !members[payerID] {
		return nil, nil, fmt.Errorf("%w: payer '%s' is not in the group", ErrInvalidInput, payerID)
	}
	for _, id := range oweMembers {
		if !members[id] {
			return nil, nil, fmt.Errorf("%w: participant '%s' is not in the group", ErrInvalidInput, id)
		}
	}

	existing, err := s.store.GetBillByDescription(ctx, groupID, description)
	if err != nil {
		slog.Error("AddBill failed", "error", err)
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, fmt.Errorf("%w: group already has a bill named '%s'", ErrDuplicateBill, existing.Description)
	}

	split, err := calculator.SplitEvenly(amount, oweMembers)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bill := &models.Bill{
		GroupID:     groupID,
		PayerID:     payerID,
		Description: description,
		Amount:      calculator.RoundToCents(amount),
	}
	shares := make([]models.Share, len(split))
	for i, sh := range split {
		shares[i] = models.Share{ParticipantID: sh.ParticipantID, AmountOwed: sh.AmountOwed}
	}

	if err := s.store.CreateBill(ctx, bill, shares); err != nil {
		slog.Error("AddBill failed", "error", err)
		return nil, nil, fmt.Errorf("failed to create bill: %w", err)
	}

	slog.Info("Bill created", "bill_id", bill.ID, "group_id", groupID, "shares_count", len(shares))
	return bill, shares, nil
}

// MarkSharePaid flags a participant's share of a bill as paid back.
// It does not change balances.
func (s *BillService) MarkSharePaid(ctx context.Context, billID, participantID string) error {
	slog.Info("MarkSharePaid request received", "bill_id", billID, "participant_id", participantID)

	if err := s.store.MarkSharePaid(ctx, billID, participantID); err != nil {
		slog.Error("MarkSharePaid failed", "bill_id", billID, "participant_id", participantID, "error", err)
		return err
	}
	return nil
}

func (s *BillService) memberSet(ctx context.Context, groupID string) (map[string]bool, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, groupID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(participants))
	for _, p := range participants {
		set[p.ID] = true
	}
	return set, nil
}
