package repository

import (
	"context"
	"errors"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// WalletRepository handles wallet balance access
type WalletRepository struct {
	db database.Database
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db database.Database) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByID retrieves a wallet by its record ID
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*model.Wallet, error) {
	query := `SELECT * FROM wallet WHERE id = type::record($id) LIMIT 1`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseWalletRow(result)
}

// ReleaseReserved moves amount from reserved_balance to main_balance in a
// single statement. The reserved balance is floored at zero to guard
// against drift; the wallet total is conserved for any amount actually
// covered by the reservation.
func (r *WalletRepository) ReleaseReserved(ctx context.Context, walletID string, amount model.Cents) error {
	query := `
		UPDATE wallet SET
			main_balance = main_balance + $amount,
			reserved_balance = math::max(reserved_balance - $amount, 0)
		WHERE id = type::record($id)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":     walletID,
		"amount": int64(amount),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(rowsFromResult(result)) == 0 {
		return database.ErrNotFound
	}
	return nil
}

func parseWalletRow(result interface{}) (*model.Wallet, error) {
	row, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	var w model.Wallet
	if err := decodeRow(row, &w); err != nil {
		return nil, err
	}
	return &w, nil
}
