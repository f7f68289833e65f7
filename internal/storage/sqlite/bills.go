package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splity/internal/models"
	"github.com/mmynk/splity/internal/storage"
)

// CreateBill persists a bill and its shares in a single transaction.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill, shares []models.Share) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, group_id, payer_id, description, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.GroupID, bill.PayerID, bill.Description, bill.Amount, bill.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	for i := range shares {
		share := &shares[i]
		share.BillID = bill.ID
		_, err = tx.ExecContext(ctx,
			"INSERT INTO bill_shares (bill_id, participant_id, amount_owed, has_paid) VALUES (?, ?, ?, ?)",
			share.BillID, share.ParticipantID, share.AmountOwed, share.Paid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bill share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBillByDescription finds a bill in a group by description, ignoring case.
func (s *SQLiteStore) GetBillByDescription(ctx context.Context, groupID, description string) (*models.Bill, error) {
	bill := &models.Bill{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, description, amount, created_at
		 FROM bills WHERE group_id = ? AND lower(description) = lower(?)
		 ORDER BY created_at, id LIMIT 1`,
		groupID, description,
	).Scan(&bill.ID, &bill.GroupID, &bill.PayerID, &bill.Description, &bill.Amount, &bill.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill by description: %w", err)
	}

	return bill, nil
}

// ListBills retrieves all bills of a group.
func (s *SQLiteStore) ListBills(ctx context.Context, groupID string) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, payer_id, description, amount, created_at
		 FROM bills WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill := &models.Bill{}
		if err := rows.Scan(&bill.ID, &bill.GroupID, &bill.PayerID, &bill.Description, &bill.Amount, &bill.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	return bills, nil
}

// ListShares retrieves every share belonging to a bill of the group.
func (s *SQLiteStore) ListShares(ctx context.Context, groupID string) ([]*models.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bs.bill_id, bs.participant_id, bs.amount_owed, bs.has_paid
		 FROM bill_shares bs
		 JOIN bills b ON b.id = bs.bill_id
		 WHERE b.group_id = ?
		 ORDER BY b.created_at, b.id, bs.participant_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer rows.Close()

	var shares []*models.Share
	for rows.Next() {
		share := &models.Share{}
		if err := rows.Scan(&share.BillID, &share.ParticipantID, &share.AmountOwed, &share.Paid); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}

	return shares, nil
}

// MarkSharePaid flags a participant's share of a bill as paid.
func (s *SQLiteStore) MarkSharePaid(ctx context.Context, billID, participantID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE bill_shares SET has_paid = 1 WHERE bill_id = ? AND participant_id = ?",
		billID, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark share paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("share %s/%s: %w", billID, participantID, storage.ErrNotFound)
	}

	return nil
}
