package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Chrisie146/reconex/internal/common"
	"github.com/Chrisie146/reconex/internal/model"
)

func TestSnapshotStorage(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	snap := &model.BulkSnapshot{
		SessionID: "sess1",
		CreatedAt: time.Now(),
		Entries: []model.SnapshotEntry{
			{TransactionID: "t1", PrevCategory: "", PrevStatus: model.StatusUncategorised},
			{TransactionID: "t2", PrevCategory: "Transport", PrevMerchant: "Uber", PrevStatus: model.StatusUserModified},
		},
	}

	t.Run("save and load round-trip", func(t *testing.T) {
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		got, err := store.GetSnapshot(ctx, "sess1")
		if err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if len(got.Entries) != 2 {
			t.Fatalf("snapshot has %d entries, want 2", len(got.Entries))
		}
		if got.Entries[1].PrevCategory != "Transport" {
			t.Errorf("entry prev category = %q, want Transport", got.Entries[1].PrevCategory)
		}
	})

	t.Run("second save replaces the pending snapshot", func(t *testing.T) {
		replacement := &model.BulkSnapshot{
			SessionID: "sess1",
			CreatedAt: time.Now(),
			Entries: []model.SnapshotEntry{
				{TransactionID: "t9", PrevStatus: model.StatusUncategorised},
			},
		}

		if err := store.SaveSnapshot(ctx, replacement); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		got, err := store.GetSnapshot(ctx, "sess1")
		if err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if len(got.Entries) != 1 || got.Entries[0].TransactionID != "t9" {
			t.Errorf("snapshot entries = %v, want single t9 entry", got.Entries)
		}
	})

	t.Run("missing snapshot maps to ErrNoPendingUndo", func(t *testing.T) {
		_, err := store.GetSnapshot(ctx, "other-session")
		if !errors.Is(err, common.ErrNoPendingUndo) {
			t.Errorf("GetSnapshot() error = %v, want ErrNoPendingUndo", err)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := store.DeleteSnapshot(ctx, "sess1"); err != nil {
			t.Fatalf("DeleteSnapshot() error = %v", err)
		}
		if err := store.DeleteSnapshot(ctx, "sess1"); err != nil {
			t.Errorf("second DeleteSnapshot() error = %v, want nil", err)
		}

		_, err := store.GetSnapshot(ctx, "sess1")
		if !errors.Is(err, common.ErrNoPendingUndo) {
			t.Errorf("GetSnapshot() after delete error = %v, want ErrNoPendingUndo", err)
		}
	})
}
