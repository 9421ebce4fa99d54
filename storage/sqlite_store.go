package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"xldict/dictreader"
	"xldict/importer"

	_ "modernc.org/sqlite"
)

// createdAtLayout keeps created_at sortable as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var ErrBatchNotFound = errors.New("batch not found")

// ErrDuplicateSheet reports a result that holds the same file and sheet twice.
var ErrDuplicateSheet = errors.New("sheet appears twice in batch")

type Batch struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Sheets    int       `json:"sheets"`
	Records   int       `json:"records"`
}

// Sheet is one worksheet imported as part of a batch.
type Sheet struct {
	BatchID    string   `json:"batchId"`
	SourceFile string   `json:"sourceFile"`
	Sheet      string   `json:"sheet"`
	FieldNames []string `json:"fieldNames"`
	RestKey    *string  `json:"restKey,omitempty"`
}

// Record is a stored dictreader record. Numbers come back as json.Number and
// timestamps as RFC 3339 strings.
type Record struct {
	ID         int64          `json:"id"`
	BatchID    string         `json:"batchId"`
	SourceFile string         `json:"sourceFile"`
	Sheet      string         `json:"sheet"`
	LineNum    int            `json:"lineNum"`
	Values     map[string]any `json:"values"`
	Rest       []any          `json:"rest,omitempty"`
}

// DictRecord converts back to the reader's record type.
func (r Record) DictRecord() dictreader.Record {
	return dictreader.Record{LineNum: r.LineNum, Values: r.Values, Rest: r.Rest}
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sheets (
	batch_id TEXT NOT NULL,
	source_file TEXT NOT NULL,
	sheet TEXT NOT NULL,
	fieldnames TEXT NOT NULL,
	rest_key TEXT,
	UNIQUE(batch_id, source_file, sheet)
);
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	batch_id TEXT NOT NULL,
	source_file TEXT NOT NULL,
	sheet TEXT NOT NULL,
	line_num INTEGER NOT NULL CHECK(line_num > 0),
	data TEXT NOT NULL,
	rest TEXT,
	UNIQUE(batch_id, source_file, sheet, line_num)
);
CREATE INDEX IF NOT EXISTS records_batch_idx ON records(batch_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertBatch stores an import result in one transaction and returns the
// number of records inserted. Records already present for the same batch,
// file, sheet and line are ignored, so storing a result twice is a no-op. A
// result that repeats a file and sheet fails with ErrDuplicateSheet.
func (s *SQLiteStore) InsertBatch(result *importer.Result) (int, error) {
	if result == nil || strings.TrimSpace(result.BatchID) == "" {
		return 0, fmt.Errorf("batch id is required")
	}
	seen := make(map[[2]string]struct{}, len(result.Files))
	for _, file := range result.Files {
		key := [2]string{file.Path, file.Sheet}
		if _, ok := seen[key]; ok {
			return 0, fmt.Errorf("%w: %s sheet %s", ErrDuplicateSheet, file.Path, file.Sheet)
		}
		seen[key] = struct{}{}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO batches (id, created_at) VALUES (?, ?);`,
		result.BatchID,
		s.now().UTC().Format(createdAtLayout),
	); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert batch %s: %w", result.BatchID, err)
	}

	sheetStmt, err := tx.Prepare(`
INSERT OR IGNORE INTO sheets (batch_id, source_file, sheet, fieldnames, rest_key)
VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare sheet statement: %w", err)
	}
	defer sheetStmt.Close()

	recordStmt, err := tx.Prepare(`
INSERT OR IGNORE INTO records (batch_id, source_file, sheet, line_num, data, rest)
VALUES (?, ?, ?, ?, ?, ?);`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare record statement: %w", err)
	}
	defer recordStmt.Close()

	inserted := 0
	for _, file := range result.Files {
		fieldNames, err := json.Marshal(nonNilStrings(file.FieldNames))
		if err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("encode field names for %s: %w", file.Path, err)
		}
		if _, err := sheetStmt.Exec(result.BatchID, file.Path, file.Sheet, string(fieldNames), file.RestKey); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert sheet %s: %w", file.Path, err)
		}

		for _, record := range file.Records {
			data, err := json.Marshal(record.Values)
			if err != nil {
				_ = tx.Rollback()
				return inserted, fmt.Errorf("encode record %s:%d: %w", file.Path, record.LineNum, err)
			}
			var rest any
			if record.HasRest() {
				raw, err := json.Marshal(record.Rest)
				if err != nil {
					_ = tx.Rollback()
					return inserted, fmt.Errorf("encode overflow %s:%d: %w", file.Path, record.LineNum, err)
				}
				rest = string(raw)
			}

			res, err := recordStmt.Exec(result.BatchID, file.Path, file.Sheet, record.LineNum, string(data), rest)
			if err != nil {
				_ = tx.Rollback()
				return inserted, fmt.Errorf("insert record %s:%d: %w", file.Path, record.LineNum, err)
			}
			rows, err := res.RowsAffected()
			if err == nil && rows > 0 {
				inserted++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

func (s *SQLiteStore) ListBatches() ([]Batch, error) {
	const query = `
SELECT
	b.id,
	b.created_at,
	(SELECT COUNT(*) FROM sheets WHERE batch_id = b.id),
	(SELECT COUNT(*) FROM records WHERE batch_id = b.id)
FROM batches b
ORDER BY b.created_at, b.id;
`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := make([]Batch, 0, 16)
	for rows.Next() {
		var (
			batch      Batch
			createdRaw string
		)
		if err := rows.Scan(&batch.ID, &createdRaw, &batch.Sheets, &batch.Records); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batch.CreatedAt, err = time.Parse(createdAtLayout, createdRaw)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	return batches, nil
}

// LatestBatch returns the most recently created batch.
func (s *SQLiteStore) LatestBatch() (Batch, bool, error) {
	batches, err := s.ListBatches()
	if err != nil {
		return Batch{}, false, err
	}
	if len(batches) == 0 {
		return Batch{}, false, nil
	}
	return batches[len(batches)-1], true, nil
}

func (s *SQLiteStore) ListSheets(batchID string) ([]Sheet, error) {
	if err := s.requireBatch(batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
SELECT batch_id, source_file, sheet, fieldnames, rest_key
FROM sheets
WHERE batch_id = ?
ORDER BY rowid;`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query sheets of batch %s: %w", batchID, err)
	}
	defer rows.Close()

	sheets := make([]Sheet, 0, 4)
	for rows.Next() {
		var (
			sheet      Sheet
			fieldNames string
			restKey    sql.NullString
		)
		if err := rows.Scan(&sheet.BatchID, &sheet.SourceFile, &sheet.Sheet, &fieldNames, &restKey); err != nil {
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldNames), &sheet.FieldNames); err != nil {
			return nil, fmt.Errorf("decode field names of %s: %w", sheet.SourceFile, err)
		}
		if restKey.Valid {
			key := restKey.String
			sheet.RestKey = &key
		}
		sheets = append(sheets, sheet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheets: %w", err)
	}

	return sheets, nil
}

func (s *SQLiteStore) ListRecords(batchID string) ([]Record, error) {
	if err := s.requireBatch(batchID); err != nil {
		return nil, err
	}

	const query = `
SELECT id, batch_id, source_file, sheet, line_num, data, rest
FROM records
WHERE batch_id = ?
ORDER BY id;
`

	rows, err := s.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("query records of batch %s: %w", batchID, err)
	}
	defer rows.Close()

	records := make([]Record, 0, 256)
	for rows.Next() {
		var (
			record Record
			data   string
			rest   sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.BatchID, &record.SourceFile, &record.Sheet, &record.LineNum, &data, &rest); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := decodeJSON(data, &record.Values); err != nil {
			return nil, fmt.Errorf("decode record %d: %w", record.ID, err)
		}
		if rest.Valid {
			if err := decodeJSON(rest.String, &record.Rest); err != nil {
				return nil, fmt.Errorf("decode overflow of record %d: %w", record.ID, err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// DeleteBatch removes a batch with its sheets and records.
func (s *SQLiteStore) DeleteBatch(batchID string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM records WHERE batch_id = ?;`, batchID)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete records of batch %s: %w", batchID, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sheets WHERE batch_id = ?;`, batchID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete sheets of batch %s: %w", batchID, err)
	}

	res, err = tx.Exec(`DELETE FROM batches WHERE id = ?;`, batchID)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete batch %s: %w", batchID, err)
	}
	batches, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	if batches == 0 {
		_ = tx.Rollback()
		return 0, ErrBatchNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete transaction: %w", err)
	}
	return deleted, nil
}

// DeleteAll empties the store and returns the number of deleted records.
func (s *SQLiteStore) DeleteAll() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM records;`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete records: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	for _, table := range []string{"sheets", "batches"} {
		if _, err := tx.Exec(`DELETE FROM ` + table + `;`); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("delete %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete transaction: %w", err)
	}
	return deleted, nil
}

func (s *SQLiteStore) requireBatch(batchID string) error {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM batches WHERE id = ?;`, batchID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBatchNotFound
	}
	if err != nil {
		return fmt.Errorf("query batch %s: %w", batchID, err)
	}
	return nil
}

func decodeJSON(raw string, target any) error {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
