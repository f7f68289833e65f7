package service

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splity/internal/calculator"
	"github.com/mmynk/splity/internal/metrics"
	"github.com/mmynk/splity/internal/models"
	"github.com/mmynk/splity/internal/storage"
	"github.com/mmynk/splity/internal/storage/sqlite"
)

type testServices struct {
	store       *sqlite.SQLiteStore
	groups      *GroupService
	bills       *BillService
	settlements *SettlementService
	metrics     *metrics.Metrics
}

// setupServices creates all services over a temp SQLite database.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})

	m := metrics.New(prometheus.NewRegistry())
	return &testServices{
		store:       store,
		groups:      NewGroupService(store, "USD"),
		bills:       NewBillService(store),
		settlements: NewSettlementService(store, m),
		metrics:     m,
	}
}

// seedGroup creates a group with the given member names; the first is the creator.
func seedGroup(t *testing.T, svc *testServices, names ...string) (*models.Group, map[string]*models.Participant) {
	t.Helper()
	ctx := context.Background()

	group, creator, err := svc.groups.CreateGroup(ctx, "Trip", "", "", names[0])
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	members := map[string]*models.Participant{names[0]: creator}
	for _, name := range names[1:] {
		p, err := svc.groups.AddParticipant(ctx, group.ID, name)
		if err != nil {
			t.Fatalf("AddParticipant(%s) failed: %v", name, err)
		}
		members[name] = p
	}
	return group, members
}

func TestCreateGroup(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	group, creator, err := svc.groups.CreateGroup(ctx, "  Roommates ", "rent and food", "eur", "Alice")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got '%s'", group.Name)
	}
	if group.Currency != "EUR" {
		t.Errorf("currency: expected 'EUR', got '%s'", group.Currency)
	}
	if creator.Name != "Alice" || creator.GroupID != group.ID {
		t.Errorf("unexpected creator %+v", creator)
	}

	defaulted, _, err := svc.groups.CreateGroup(ctx, "Lunch", "", "", "Bob")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if defaulted.Currency != "USD" {
		t.Errorf("currency: expected default 'USD', got '%s'", defaulted.Currency)
	}

	participants, err := svc.groups.ListParticipants(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(participants) != 1 {
		t.Errorf("expected creator as only participant, got %d", len(participants))
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	if _, _, err := svc.groups.CreateGroup(ctx, "   ", "", "", "Alice"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.groups.CreateGroup(ctx, "Trip", "", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty creator: expected ErrInvalidInput, got %v", err)
	}

	for _, currency := range []string{"dollars", "U$D", "1"} {
		if _, _, err := svc.groups.CreateGroup(ctx, "Trip", "", currency, "Alice"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("currency %q: expected ErrInvalidInput, got %v", currency, err)
		}
	}
}

func TestCreateGroupDuplicateName(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	if _, _, err := svc.groups.CreateGroup(ctx, "Trip", "", "", "Alice"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, _, err := svc.groups.CreateGroup(ctx, " trip ", "", "", "Alice"); !errors.Is(err, ErrDuplicateGroup) {
		t.Errorf("same creator: expected ErrDuplicateGroup, got %v", err)
	}
	if _, _, err := svc.groups.CreateGroup(ctx, "Trip", "", "", "Bob"); err != nil {
		t.Errorf("different creator should be allowed, got %v", err)
	}
}

func TestJoinGroup(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	group, _ := seedGroup(t, svc, "Alice")

	joined, member, err := svc.groups.JoinGroup(ctx, " "+group.InviteCode+" ", "Bob")
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if joined.ID != group.ID || member.GroupID != group.ID {
		t.Errorf("joined wrong group: %s / %s, want %s", joined.ID, member.GroupID, group.ID)
	}

	if _, _, err := svc.groups.JoinGroup(ctx, "ABC", "Carol"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("short code: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.groups.JoinGroup(ctx, "ZZZZZZ", "Carol"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown code: expected ErrNotFound, got %v", err)
	}
}

func TestAddParticipantUnknownGroup(t *testing.T) {
	svc := setupServices(t)

	_, err := svc.groups.AddParticipant(context.Background(), "missing", "Alice")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddBill(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, m := seedGroup(t, svc, "Alice", "Bob", "Charlie")
	all := []string{m["Alice"].ID, m["Bob"].ID, m["Charlie"].ID}

	bill, shares, err := svc.bills.AddBill(ctx, group.ID, m["Alice"].ID, "Dinner", 100, all)
	if err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}
	if bill.ID == "" {
		t.Fatal("expected bill ID")
	}
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}
	var sum float64
	for _, s := range shares {
		if s.BillID != bill.ID {
			t.Errorf("share BillID = %s, want %s", s.BillID, bill.ID)
		}
		sum += s.AmountOwed
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Errorf("shares sum to %v, want 100", sum)
	}

	tests := []struct {
		name        string
		payer       string
		description string
		amount      float64
		owe         []string
		wantErr     error
	}{
		{"blank description", m["Bob"].ID, "   ", 10, all, ErrInvalidInput},
		{"duplicate description ignores case", m["Bob"].ID, "DINNER", 10, all, ErrDuplicateBill},
		{"payer outside group", "stranger", "Taxi", 10, all, ErrInvalidInput},
		{"owe member outside group", m["Bob"].ID, "Taxi", 10, []string{"stranger"}, ErrInvalidInput},
		{"no owe members", m["Bob"].ID, "Taxi", 10, nil, ErrInvalidInput},
		{"negative amount", m["Bob"].ID, "Taxi", -10, all, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.bills.AddBill(ctx, group.ID, tt.payer, tt.description, tt.amount, tt.owe)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, _, err := svc.bills.AddBill(ctx, "missing", m["Alice"].ID, "Taxi", 10, all); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown group: expected ErrNotFound, got %v", err)
	}
}

func TestMarkSharePaid(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, m := seedGroup(t, svc, "Alice", "Bob")

	bill, _, err := svc.bills.AddBill(ctx, group.ID, m["Alice"].ID, "Tickets", 40, []string{m["Alice"].ID, m["Bob"].ID})
	if err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}

	before, err := svc.settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	if err := svc.bills.MarkSharePaid(ctx, bill.ID, m["Bob"].ID); err != nil {
		t.Fatalf("MarkSharePaid failed: %v", err)
	}
	if err := svc.bills.MarkSharePaid(ctx, bill.ID, "stranger"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// The paid flag is informational; balances are unchanged.
	after, err := svc.settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if len(after.Transfers) != len(before.Transfers) || after.Transfers[0] != before.Transfers[0] {
		t.Errorf("transfers changed after MarkSharePaid: %+v vs %+v", before.Transfers, after.Transfers)
	}
}

func TestSettleGroup(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, m := seedGroup(t, svc, "Alice", "Bob", "Charlie")
	alice, bob, charlie := m["Alice"], m["Bob"], m["Charlie"]

	// Alice paid 30 split evenly among all three.
	if _, _, err := svc.bills.AddBill(ctx, group.ID, alice.ID, "Groceries", 30, []string{alice.ID, bob.ID, charlie.ID}); err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}

	result, err := svc.settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if !result.Settled() {
		t.Fatalf("expected settled result, residue %v", result.Incomplete)
	}
	if result.Inconsistent != nil {
		t.Errorf("unexpected inconsistency: %v", result.Inconsistent)
	}
	if result.Group.ID != group.ID {
		t.Errorf("group ID = %s, want %s", result.Group.ID, group.ID)
	}

	wantNet := map[string]float64{"Alice": 20, "Bob": -10, "Charlie": -10}
	if len(result.Balances) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(result.Balances))
	}
	for i, bal := range result.Balances {
		if i > 0 && result.Balances[i-1].Name > bal.Name {
			t.Errorf("balances not sorted by name: %+v", result.Balances)
		}
		if math.Abs(bal.Net-wantNet[bal.Name]) > 0.001 {
			t.Errorf("%s net = %v, want %v", bal.Name, bal.Net, wantNet[bal.Name])
		}
	}

	if len(result.Transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %+v", result.Transfers)
	}
	payers := map[string]bool{}
	for _, tr := range result.Transfers {
		if tr.CreditorID != alice.ID || tr.Amount != 10 {
			t.Errorf("unexpected transfer %+v", tr)
		}
		payers[tr.DebtorID] = true
	}
	if !payers[bob.ID] || !payers[charlie.ID] {
		t.Errorf("expected Bob and Charlie to pay, got %+v", result.Transfers)
	}

	if got := testutil.ToFloat64(svc.metrics.SettlementsTotal.WithLabelValues(metrics.ResultSettled)); got != 1 {
		t.Errorf("settled runs = %v, want 1", got)
	}
}

func TestSettleGroupEmptyAndMissing(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, _ := seedGroup(t, svc, "Alice")

	result, err := svc.settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if len(result.Transfers) != 0 || !result.Settled() {
		t.Errorf("expected no transfers for a group without bills, got %+v", result)
	}

	if _, err := svc.settlements.SettleGroup(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.settlements.SettleGroup(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if got := testutil.ToFloat64(svc.metrics.SettlementsTotal.WithLabelValues(metrics.ResultError)); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}

func TestSettleGroupPayerNotCharged(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, m := seedGroup(t, svc, "Alice", "Bob")

	// Alice pays for Bob only.
	if _, _, err := svc.bills.AddBill(ctx, group.ID, m["Alice"].ID, "Gift", 25, []string{m["Bob"].ID}); err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}

	result, err := svc.settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	want := calculator.Transfer{
		DebtorID: m["Bob"].ID, DebtorName: "Bob", Amount: 25,
		CreditorID: m["Alice"].ID, CreditorName: "Alice",
	}
	if len(result.Transfers) != 1 || result.Transfers[0] != want {
		t.Errorf("transfers = %+v, want [%+v]", result.Transfers, want)
	}
}

// leakyStore returns shares that point at participants outside the group.
type leakyStore struct {
	storage.Store
	extra []*models.Share
}

func (l *leakyStore) ListShares(ctx context.Context, groupID string) ([]*models.Share, error) {
	shares, err := l.Store.ListShares(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return append(shares, l.extra...), nil
}

func TestSettleGroupReportsInconsistency(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, m := seedGroup(t, svc, "Alice", "Bob")

	if _, _, err := svc.bills.AddBill(ctx, group.ID, m["Alice"].ID, "Fuel", 60, []string{m["Alice"].ID, m["Bob"].ID}); err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}

	leaky := &leakyStore{
		Store: svc.store,
		extra: []*models.Share{{BillID: "b", ParticipantID: "ghost", AmountOwed: 15}},
	}
	settlements := NewSettlementService(leaky, svc.metrics)

	result, err := settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if result.Inconsistent == nil {
		t.Fatal("expected inconsistency to be reported")
	}
	if len(result.Inconsistent.UnknownShareParticipants) != 1 || result.Inconsistent.UnknownShareParticipants[0] != "ghost" {
		t.Errorf("unknown share participants = %v, want [ghost]", result.Inconsistent.UnknownShareParticipants)
	}
	if len(result.Transfers) != 1 || result.Transfers[0].Amount != 30 {
		t.Errorf("expected Bob to pay Alice 30, got %+v", result.Transfers)
	}
	if got := testutil.ToFloat64(svc.metrics.DataConsistencyErrors); got != 1 {
		t.Errorf("data consistency errors = %v, want 1", got)
	}
}

func TestSettleGroupReportsIncomplete(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()
	group, m := seedGroup(t, svc, "Alice", "Bob")

	if _, _, err := svc.bills.AddBill(ctx, group.ID, m["Alice"].ID, "Hotel", 80, []string{m["Alice"].ID, m["Bob"].ID}); err != nil {
		t.Fatalf("AddBill failed: %v", err)
	}

	// An extra share for Bob with no matching bill leaves him owing 20 nobody is owed.
	leaky := &leakyStore{
		Store: svc.store,
		extra: []*models.Share{{BillID: "orphan", ParticipantID: m["Bob"].ID, AmountOwed: 20}},
	}
	settlements := NewSettlementService(leaky, svc.metrics)

	result, err := settlements.SettleGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if result.Settled() {
		t.Fatal("expected incomplete settlement")
	}
	residue, ok := result.Incomplete.Residual[m["Bob"].ID]
	if !ok || math.Abs(residue.Net+20) > 0.001 {
		t.Errorf("residual = %+v, want Bob at -20", result.Incomplete.Residual)
	}
	if len(result.Transfers) != 1 || result.Transfers[0].Amount != 40 {
		t.Errorf("expected Bob to pay Alice 40, got %+v", result.Transfers)
	}
	if got := testutil.ToFloat64(svc.metrics.SettlementsTotal.WithLabelValues(metrics.ResultIncomplete)); got != 1 {
		t.Errorf("incomplete runs = %v, want 1", got)
	}
}
