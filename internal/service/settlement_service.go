package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mmynk/splity/internal/calculator"
	"github.com/mmynk/splity/internal/metrics"
	"github.com/mmynk/splity/internal/models"
	"github.com/mmynk/splity/internal/storage"
)

// MemberBalance is one participant's row in a settlement summary.
type MemberBalance struct {
	ParticipantID string
	Name          string
	Paid          float64
	Owed          float64
	Net           float64 // Positive = owed money, Negative = owes money
}

// GroupSettlement is the outcome of settling a group.
type GroupSettlement struct {
	Group     *models.Group
	Balances  []MemberBalance // Sorted by name, then ID
	Transfers []calculator.Transfer

	// Inconsistent is set when some records referenced participants outside the group.
	Inconsistent *calculator.DataConsistencyError

	// Incomplete is set when balances did not net to zero and residue remains.
	Incomplete *calculator.SettlementIncompleteError
}

// Settled reports whether the transfers clear every balance.
func (g *GroupSettlement) Settled() bool {
	return g.Incomplete == nil
}

// SettlementService computes balances and suggested transfers for a group.
type SettlementService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewSettlementService creates a SettlementService. m may be nil.
func NewSettlementService(store storage.Store, m *metrics.Metrics) *SettlementService {
	return &SettlementService{store: store, metrics: m}
}

// SettleGroup loads a snapshot of the group's records and settles it.
// Inconsistent records and non-zero-sum residue are reported on the result,
// not as errors; only storage failures are returned as errors.
func (s *SettlementService) SettleGroup(ctx context.Context, groupID string) (*GroupSettlement, error) {
	start := time.Now()
	slog.Info("SettleGroup request received", "group_id", groupID)

	if groupID == "" {
		return nil, fmt.Errorf("%w: group_id required", ErrInvalidInput)
	}

	result, err := s.settle(ctx, groupID)
	if err != nil {
		s.metrics.ObserveSettlement(metrics.ResultError, 0, time.Since(start))
		return nil, err
	}

	outcome := metrics.ResultSettled
	if !result.Settled() {
		outcome = metrics.ResultIncomplete
	}
	s.metrics.ObserveSettlement(outcome, len(result.Transfers), time.Since(start))

	slog.Info("SettleGroup successful",
		"group_id", groupID,
		"members_count", len(result.Balances),
		"transfers_count", len(result.Transfers),
		"settled", result.Settled(),
	)
	return result, nil
}

func (s *SettlementService) settle(ctx context.Context, groupID string) (*GroupSettlement, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("SettleGroup failed - group not found", "group_id", groupID, "error", err)
		return nil, err
	}

	participants, err := s.store.ListParticipants(ctx, groupID)
	if err != nil {
		slog.Error("SettleGroup failed - could not list participants", "group_id", groupID, "error", err)
		return nil, err
	}
	bills, err := s.store.ListBills(ctx, groupID)
	if err != nil {
		slog.Error("SettleGroup failed - could not list bills", "group_id", groupID, "error", err)
		return nil, err
	}
	shares, err := s.store.ListShares(ctx, groupID)
	if err != nil {
		slog.Error("SettleGroup failed - could not list shares", "group_id", groupID, "error", err)
		return nil, err
	}

	// Convert to calculator format
	calcParticipants := make([]calculator.ParticipantForBalance, len(participants))
	for i, p := range participants {
		calcParticipants[i] = calculator.ParticipantForBalance{ID: p.ID, Name: p.Name}
	}
	calcBills := make([]calculator.BillForBalance, len(bills))
	for i, b := range bills {
		calcBills[i] = calculator.BillForBalance{PayerID: b.PayerID, Amount: b.Amount}
	}
	calcShares := make([]calculator.ShareForBalance, len(shares))
	for i, sh := range shares {
		calcShares[i] = calculator.ShareForBalance{ParticipantID: sh.ParticipantID, AmountOwed: sh.AmountOwed}
	}

	result := &GroupSettlement{Group: group}

	balances, err := calculator.ComputeBalances(calcParticipants, calcBills, calcShares)
	if err != nil {
		if !errors.As(err, &result.Inconsistent) {
			return nil, fmt.Errorf("failed to compute balances: %w", err)
		}
		slog.Warn("SettleGroup found inconsistent records", "group_id", groupID, "error", err)
		s.metrics.IncDataConsistency()
	}

	transfers, display, err := calculator.Settle(balances)
	if err != nil {
		if !errors.As(err, &result.Incomplete) {
			return nil, fmt.Errorf("failed to settle balances: %w", err)
		}
		slog.Warn("SettleGroup left balances unresolved", "group_id", groupID, "error", err)
	}

	result.Transfers = transfers
	result.Balances = memberBalances(display)
	return result, nil
}

func memberBalances(balances calculator.Balances) []MemberBalance {
	out := make([]MemberBalance, 0, len(balances))
	for id, bal := range balances {
		out = append(out, MemberBalance{
			ParticipantID: id,
			Name:          bal.Name,
			Paid:          calculator.RoundToCents(bal.Paid),
			Owed:          calculator.RoundToCents(bal.Owed),
			Net:           calculator.RoundToCents(bal.Net),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out
}
