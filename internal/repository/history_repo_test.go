package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/strudel-live/backend/internal/db"
	"github.com/strudel-live/backend/internal/model"
)

func setupTestRepo(t *testing.T) (*HistoryRepository, *sql.DB) {
	t.Helper()
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return NewHistoryRepository(testDB), testDB
}

func TestRecordAndGetByID(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	rec := &model.PlayRecord{
		SessionID:   "abc1",
		Kind:        model.EventKindPlay,
		Code:        `note("c e g")`,
		Description: "a chord",
	}
	if err := repo.Record(ctx, rec); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected record id to be set")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got.SessionID != "abc1" || got.Kind != model.EventKindPlay {
		t.Errorf("retrieved record does not match: %+v", got)
	}
	if got.Code != rec.Code || got.Description != rec.Description {
		t.Errorf("retrieved payload does not match: %+v", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, model.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestListBySession(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := repo.Record(ctx, &model.PlayRecord{
			SessionID: "abc1",
			Kind:      model.EventKindPlay,
			Code:      fmt.Sprintf(`note("c%d")`, i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}
	// A record for another session must not leak into the listing.
	if err := repo.Record(ctx, &model.PlayRecord{SessionID: "xyz9", Kind: model.EventKindStop}); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	records, err := repo.ListBySession(ctx, "abc1", 3)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Newest first
	if records[0].Code != `note("c4")` {
		t.Errorf("expected newest record first, got %s", records[0].Code)
	}
	for _, rec := range records {
		if rec.SessionID != "abc1" {
			t.Errorf("unexpected session in listing: %s", rec.SessionID)
		}
	}
}

func TestListBySessionEmpty(t *testing.T) {
	repo, _ := setupTestRepo(t)

	records, err := repo.ListBySession(context.Background(), "abc1", 10)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestRecentErrors(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	if err := repo.Record(ctx, &model.PlayRecord{
		SessionID: "abc1",
		Kind:      model.EventKindPlay,
		Code:      `note("c")`,
		CreatedAt: base,
	}); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	for i := 0; i < 3; i++ {
		err := repo.Record(ctx, &model.PlayRecord{
			SessionID: "abc1",
			Kind:      model.EventKindEvalError,
			Error:     fmt.Sprintf("boom %d", i),
			CreatedAt: base.Add(time.Duration(i+1) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	records, err := repo.RecentErrors(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list errors: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Error != "boom 2" {
		t.Errorf("expected newest error first, got %s", records[0].Error)
	}
	for _, rec := range records {
		if rec.Kind != model.EventKindEvalError {
			t.Errorf("expected only evaluation errors, got %s", rec.Kind)
		}
	}
}

func TestCountBySession(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	count, err := repo.CountBySession(ctx, "abc1")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}

	for i := 0; i < 4; i++ {
		if err := repo.Record(ctx, &model.PlayRecord{SessionID: "abc1", Kind: model.EventKindPlay}); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	count, err = repo.CountBySession(ctx, "abc1")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4, got %d", count)
	}
}
