package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

type mockReservationSource struct {
	listFunc         func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error)
	markReleasedFunc func(ctx context.Context, id string) error
}

func (m *mockReservationSource) ListExpiredReserved(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockReservationSource) MarkReleased(ctx context.Context, id string) error {
	if m.markReleasedFunc != nil {
		return m.markReleasedFunc(ctx, id)
	}
	return nil
}

// fakeWalletStore tracks balances in memory so tests can assert conservation.
type fakeWalletStore struct {
	wallets map[string]*model.Wallet
}

func (f *fakeWalletStore) GetByID(ctx context.Context, id string) (*model.Wallet, error) {
	w, ok := f.wallets[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return w, nil
}

func (f *fakeWalletStore) ReleaseReserved(ctx context.Context, walletID string, amount model.Cents) error {
	w, ok := f.wallets[walletID]
	if !ok {
		return database.ErrNotFound
	}
	w.MainBalance += amount
	w.ReservedBalance -= amount
	if w.ReservedBalance < 0 {
		w.ReservedBalance = 0
	}
	return nil
}

func reservation(id, walletID string, amount model.Cents) *model.Reservation {
	return &model.Reservation{
		ID:       id,
		UserID:   "user-" + id,
		WalletID: walletID,
		Amount:   amount,
		Status:   model.ReservationReserved,
	}
}

func TestReservationRelease_ConservesWalletTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wallets := &fakeWalletStore{wallets: map[string]*model.Wallet{
		"wallet-1": {ID: "wallet-1", MainBalance: 50000, ReservedBalance: 20000},
	}}
	reservations := &mockReservationSource{
		listFunc: func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{reservation("res-1", "wallet-1", 20000)}, nil
		},
	}
	ledger := &mockAuditWriter{}
	recorder := &mockRecorder{}

	job := NewReservationReleaseJob(reservations, wallets, ledger, recorder)
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Succeeded != 1 || res.Failed != 0 {
		t.Fatalf("expected 1 success, got %+v", res)
	}

	w := wallets.wallets["wallet-1"]
	if w.MainBalance != 70000 || w.ReservedBalance != 0 {
		t.Errorf("expected 70000/0, got %d/%d", w.MainBalance, w.ReservedBalance)
	}
	if w.Total() != 70000 {
		t.Errorf("wallet total must be conserved, got %d", w.Total())
	}

	if len(ledger.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledger.entries))
	}
	if ledger.entries[0].Type != model.LedgerReservationRelease || ledger.entries[0].Amount != 20000 {
		t.Errorf("unexpected ledger entry: %+v", ledger.entries[0])
	}

	if res.Stats["total_released"] != int64(20000) {
		t.Errorf("expected total_released 20000, got %v", res.Stats["total_released"])
	}
}

func TestReservationRelease_SkipsAlreadyClaimedRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wallets := &fakeWalletStore{wallets: map[string]*model.Wallet{
		"wallet-1": {ID: "wallet-1", MainBalance: 1000, ReservedBalance: 500},
	}}
	reservations := &mockReservationSource{
		listFunc: func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{reservation("res-1", "wallet-1", 500)}, nil
		},
		markReleasedFunc: func(ctx context.Context, id string) error {
			return database.ErrStaleRow
		},
	}

	job := NewReservationReleaseJob(reservations, wallets, &mockAuditWriter{}, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Skipped != 1 || res.Succeeded != 0 || res.Failed != 0 {
		t.Fatalf("expected skip, got %+v", res)
	}
	// A skipped row must not move money.
	w := wallets.wallets["wallet-1"]
	if w.MainBalance != 1000 || w.ReservedBalance != 500 {
		t.Errorf("wallet mutated on skip: %d/%d", w.MainBalance, w.ReservedBalance)
	}
}

func TestReservationRelease_PartialFailureIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wallets := &fakeWalletStore{wallets: map[string]*model.Wallet{
		"wallet-1": {ID: "wallet-1", MainBalance: 0, ReservedBalance: 100},
		"wallet-3": {ID: "wallet-3", MainBalance: 0, ReservedBalance: 300},
	}}
	reservations := &mockReservationSource{
		listFunc: func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{
				reservation("res-1", "wallet-1", 100),
				reservation("res-2", "wallet-missing", 200),
				reservation("res-3", "wallet-3", 300),
			}, nil
		},
	}

	job := NewReservationReleaseJob(reservations, wallets, &mockAuditWriter{}, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Processed != 3 || res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("expected 2/1 split, got %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].ID != "res-2" {
		t.Fatalf("expected error for res-2, got %+v", res.Errors)
	}
	if res.Status != model.JobCompletedWithErrors {
		t.Errorf("expected completed_with_errors, got %s", res.Status)
	}
	// Non-failing items are fully applied.
	if wallets.wallets["wallet-1"].MainBalance != 100 || wallets.wallets["wallet-3"].MainBalance != 300 {
		t.Errorf("non-failing items not applied")
	}
}

func TestReservationRelease_LedgerFailureIsBestEffort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wallets := &fakeWalletStore{wallets: map[string]*model.Wallet{
		"wallet-1": {ID: "wallet-1", MainBalance: 0, ReservedBalance: 100},
	}}
	reservations := &mockReservationSource{
		listFunc: func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{reservation("res-1", "wallet-1", 100)}, nil
		},
	}
	ledger := &mockAuditWriter{
		insertFunc: func(ctx context.Context, entry *model.LedgerEntry) error {
			return errors.New("ledger unavailable")
		},
	}

	job := NewReservationReleaseJob(reservations, wallets, ledger, &mockRecorder{})
	res, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Succeeded != 1 || res.Failed != 0 {
		t.Fatalf("ledger failure must not fail the item, got %+v", res)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(res.Warnings))
	}
	if res.Status != model.JobCompleted {
		t.Errorf("expected completed, got %s", res.Status)
	}
}

func TestReservationRelease_FetchErrorAbortsRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reservations := &mockReservationSource{
		listFunc: func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
			return nil, errors.New("db unreachable")
		},
	}
	recorder := &mockRecorder{}

	job := NewReservationReleaseJob(reservations, &fakeWalletStore{}, &mockAuditWriter{}, recorder)
	res, err := job.Run(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Status != model.JobFailed {
		t.Errorf("expected failed job log entry, got %+v", recorder.entries)
	}
}

func TestReservationRelease_CutoffIsSevenDays(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var gotCutoff time.Time
	reservations := &mockReservationSource{
		listFunc: func(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
			gotCutoff = cutoff
			return nil, nil
		},
	}

	job := NewReservationReleaseJob(reservations, &fakeWalletStore{}, &mockAuditWriter{}, &mockRecorder{})
	before := time.Now()
	if _, err := job.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := before.Add(-model.ReleaseWindow)
	if gotCutoff.Before(want.Add(-time.Minute)) || gotCutoff.After(want.Add(time.Minute)) {
		t.Errorf("cutoff not a week back: got %v", gotCutoff)
	}
}
