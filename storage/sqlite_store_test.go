package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"xldict/dictreader"
	"xldict/importer"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "xldict_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleResult(batchID string) *importer.Result {
	restKey := "_rest"
	return &importer.Result{
		BatchID: batchID,
		Files: []importer.FileResult{
			{
				Path:       "people.csv",
				Sheet:      "people",
				FieldNames: []string{"name", "age"},
				Records: []dictreader.Record{
					{LineNum: 2, Values: map[string]any{"name": "alice", "age": int64(30)}},
					{LineNum: 4, Values: map[string]any{"name": "bob", "age": nil}},
				},
			},
			{
				Path:       "items.xlsx",
				Sheet:      "Sheet1",
				FieldNames: []string{"sku"},
				RestKey:    &restKey,
				Records: []dictreader.Record{
					{
						LineNum: 2,
						Values:  map[string]any{"sku": "A-1", "_rest": []any{"x", nil}},
						Rest:    []any{"x", nil},
					},
				},
			},
		},
	}
}

func TestSQLiteStore_InsertAndListBatch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	inserted, err := store.InsertBatch(sampleResult("b1"))
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 inserted records, got %d", inserted)
	}

	batches, err := store.ListBatches()
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 1 || batches[0].ID != "b1" || batches[0].Sheets != 2 || batches[0].Records != 3 {
		t.Fatalf("unexpected batches: %+v", batches)
	}

	records, err := store.ListRecords("b1")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].LineNum != 2 || records[0].Values["name"] != "alice" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[0].Values["age"] != json.Number("30") {
		t.Fatalf("expected json number for age, got %#v", records[0].Values["age"])
	}
	if value, ok := records[1].Values["age"]; !ok || value != nil {
		t.Fatalf("expected blank age to round trip as nil, got %#v", value)
	}
	if records[1].Rest != nil {
		t.Fatalf("expected no overflow, got %v", records[1].Rest)
	}
	if len(records[2].Rest) != 2 || records[2].Rest[0] != "x" || records[2].Rest[1] != nil {
		t.Fatalf("unexpected overflow: %#v", records[2].Rest)
	}
	if !records[2].DictRecord().HasRest() {
		t.Fatalf("expected converted record to keep overflow")
	}
}

func TestSQLiteStore_InsertBatchIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.InsertBatch(sampleResult("b1")); err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	inserted, err := store.InsertBatch(sampleResult("b1"))
	if err != nil {
		t.Fatalf("insert batch again: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("expected duplicates to be ignored, got %d inserted", inserted)
	}
}

func TestSQLiteStore_InsertBatchRejectsRepeatedSheet(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	result := sampleResult("b1")
	repeated := result.Files[0]
	repeated.Records = []dictreader.Record{{LineNum: 2, Values: map[string]any{"name": "carol", "age": nil}}}
	result.Files = append(result.Files, repeated)

	if _, err := store.InsertBatch(result); !errors.Is(err, ErrDuplicateSheet) {
		t.Fatalf("expected ErrDuplicateSheet, got %v", err)
	}
	batches, err := store.ListBatches()
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("expected nothing stored, got %+v", batches)
	}
}

func TestSQLiteStore_InsertBatchRequiresID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.InsertBatch(&importer.Result{}); err == nil {
		t.Fatalf("expected error for missing batch id")
	}
}

func TestSQLiteStore_ListSheetsKeepsFieldOrderAndRestKey(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.InsertBatch(sampleResult("b1")); err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	sheets, err := store.ListSheets("b1")
	if err != nil {
		t.Fatalf("list sheets: %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(sheets))
	}
	if sheets[0].FieldNames[0] != "name" || sheets[0].FieldNames[1] != "age" || sheets[0].RestKey != nil {
		t.Fatalf("unexpected first sheet: %+v", sheets[0])
	}
	if sheets[1].RestKey == nil || *sheets[1].RestKey != "_rest" {
		t.Fatalf("expected rest key on second sheet, got %+v", sheets[1])
	}
}

func TestSQLiteStore_LatestBatch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, ok, err := store.LatestBatch(); err != nil || ok {
		t.Fatalf("expected no batch, got ok=%v err=%v", ok, err)
	}

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	if _, err := store.InsertBatch(sampleResult("older")); err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	store.now = func() time.Time { return base.Add(time.Minute) }
	if _, err := store.InsertBatch(sampleResult("newer")); err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	latest, ok, err := store.LatestBatch()
	if err != nil || !ok {
		t.Fatalf("latest batch: ok=%v err=%v", ok, err)
	}
	if latest.ID != "newer" || !latest.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected latest batch: %+v", latest)
	}
}

func TestSQLiteStore_DeleteBatch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	for _, id := range []string{"b1", "b2"} {
		if _, err := store.InsertBatch(sampleResult(id)); err != nil {
			t.Fatalf("insert batch %s: %v", id, err)
		}
	}

	deleted, err := store.DeleteBatch("b1")
	if err != nil {
		t.Fatalf("delete batch: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted records, got %d", deleted)
	}

	if _, err := store.ListRecords("b1"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
	records, err := store.ListRecords("b2")
	if err != nil || len(records) != 3 {
		t.Fatalf("expected other batch untouched, got %d records err=%v", len(records), err)
	}
}

func TestSQLiteStore_DeleteBatchNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.DeleteBatch("missing"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
	if _, err := store.ListSheets("missing"); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestSQLiteStore_DeleteAll(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	for _, id := range []string{"b1", "b2"} {
		if _, err := store.InsertBatch(sampleResult(id)); err != nil {
			t.Fatalf("insert batch %s: %v", id, err)
		}
	}

	deleted, err := store.DeleteAll()
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if deleted != 6 {
		t.Fatalf("expected 6 deleted records, got %d", deleted)
	}

	batches, err := store.ListBatches()
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("expected no batches, got %d", len(batches))
	}
}
