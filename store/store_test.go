package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-refdata/store"
)

type row struct {
	ID   int
	Code string
}

func TestFuncs(t *testing.T) {
	ctx := context.Background()
	refreshed := 0
	storage := store.Funcs[*row]{
		FindAllFn: func(ctx context.Context) ([]*row, error) {
			return []*row{{ID: 1, Code: "A"}}, nil
		},
		RefreshFn: func(ctx context.Context, r *row) error {
			refreshed++
			r.Code = "B"
			return nil
		},
	}

	rows, err := storage.FindAll(ctx)
	if err != nil || len(rows) != 1 {
		t.Fatalf("FindAll = %v, %v", rows, err)
	}

	if err := storage.Refresh(ctx, rows[0]); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed != 1 || rows[0].Code != "B" {
		t.Errorf("expected the refresh func to run in place, got %+v", rows[0])
	}
}

func TestFuncs_NilRefreshIsNoop(t *testing.T) {
	storage := store.Funcs[*row]{
		FindAllFn: func(ctx context.Context) ([]*row, error) { return nil, nil },
	}
	r := &row{Code: "A"}
	if err := storage.Refresh(context.Background(), r); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestConfig_RoundTripsThroughValidation(t *testing.T) {
	cfg := store.DefaultConfig()
	if cfg.Driver != store.DriverSQLite {
		t.Errorf("expected sqlite default, got %q", cfg.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}

	cfg.Driver = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected an empty driver to be rejected")
	}
}

func TestOpen(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.ConnMaxLifetime = time.Minute

	db, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestErrRecordNotFound_IsExported(t *testing.T) {
	wrapped := errors.Join(errors.New("refresh order_status"), store.ErrRecordNotFound)
	if !errors.Is(wrapped, store.ErrRecordNotFound) {
		t.Error("expected store.ErrRecordNotFound to match")
	}
}
