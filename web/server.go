// Package web serves a localhost-only JSON API over imported batches; it has
// no auth in this mode.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"xldict/config"
	"xldict/dictreader"
	"xldict/importer"
	"xldict/profile"
	"xldict/storage"
)

const maxUploadMemory = 32 << 20

type Server struct {
	store *storage.SQLiteStore
	cfg   config.Config
	mux   *http.ServeMux
}

type importResponse struct {
	BatchID          string `json:"batchId"`
	FilesProcessed   int    `json:"filesProcessed"`
	RowsRead         int    `json:"rowsRead"`
	RecordsRead      int    `json:"recordsRead"`
	BlankRowsSkipped int    `json:"blankRowsSkipped"`
	OverflowRecords  int    `json:"overflowRecords"`
	RecordsPersisted int    `json:"recordsPersisted"`
}

type sheetProfile struct {
	SourceFile string          `json:"sourceFile"`
	Sheet      string          `json:"sheet"`
	Profile    profile.Profile `json:"profile"`
}

func NewServer(store *storage.SQLiteStore, cfg config.Config) http.Handler {
	server := &Server{store: store, cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/batches", server.handleAPIBatches)
	mux.HandleFunc("GET /api/batches/{id}/records", server.handleAPIRecords)
	mux.HandleFunc("GET /api/batches/{id}/profile", server.handleAPIProfile)
	mux.HandleFunc("DELETE /api/batches/{id}", server.handleAPIBatchDelete)
	mux.HandleFunc("POST /api/import", server.handleAPIImport)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Debug("request")
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleAPIBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.ListBatches()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	batchID := strings.TrimSpace(r.PathValue("id"))
	records, err := s.store.ListRecords(batchID)
	if err != nil {
		http.Error(w, err.Error(), storeErrorStatus(err))
		return
	}

	sheet := strings.TrimSpace(r.URL.Query().Get("sheet"))
	if sheet != "" {
		filtered := records[:0]
		for _, record := range records {
			if record.Sheet == sheet {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAPIProfile(w http.ResponseWriter, r *http.Request) {
	batchID := strings.TrimSpace(r.PathValue("id"))
	sheets, err := s.store.ListSheets(batchID)
	if err != nil {
		http.Error(w, err.Error(), storeErrorStatus(err))
		return
	}
	records, err := s.store.ListRecords(batchID)
	if err != nil {
		http.Error(w, err.Error(), storeErrorStatus(err))
		return
	}

	bySheet := make(map[[2]string][]dictreader.Record, len(sheets))
	for _, record := range records {
		key := [2]string{record.SourceFile, record.Sheet}
		bySheet[key] = append(bySheet[key], record.DictRecord())
	}

	out := make([]sheetProfile, 0, len(sheets))
	for _, sheet := range sheets {
		result, err := profile.Build(sheet.FieldNames, bySheet[[2]string{sheet.SourceFile, sheet.Sheet}])
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out = append(out, sheetProfile{SourceFile: sheet.SourceFile, Sheet: sheet.Sheet, Profile: result})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIBatchDelete(w http.ResponseWriter, r *http.Request) {
	batchID := strings.TrimSpace(r.PathValue("id"))
	deleted, err := s.store.DeleteBatch(batchID)
	if err != nil {
		http.Error(w, err.Error(), storeErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, fmt.Sprintf("parse multipart form: %v", err), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}

	options, err := importer.OptionsFromConfig(s.cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := applyFormOptions(r, &options); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp("", "xldict-upload-*")
	if err != nil {
		http.Error(w, fmt.Sprintf("create upload dir: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	paths := make([]string, 0, len(headers))
	names := make(map[string]string, len(headers))
	used := make(map[string]struct{}, len(headers))
	for i, header := range headers {
		name := uploadFileName(header.Filename)
		path := filepath.Join(dir, fmt.Sprintf("%d", i), name)
		if err := saveUpload(header, path); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		paths = append(paths, path)
		names[path] = storedSourceName(i, name, used)
	}

	result, err := importer.Run(paths, options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for i := range result.Files {
		result.Files[i].Path = names[result.Files[i].Path]
	}

	inserted, err := s.store.InsertBatch(result)
	if err != nil {
		http.Error(w, fmt.Sprintf("insert imported records: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		BatchID:          result.BatchID,
		FilesProcessed:   result.FilesProcessed,
		RowsRead:         result.RowsRead,
		RecordsRead:      result.RecordsRead,
		BlankRowsSkipped: result.BlankRowsSkipped,
		OverflowRecords:  result.OverflowRecords,
		RecordsPersisted: inserted,
	})
}

// applyFormOptions lets the form override sheet, format, fieldnames and restkey.
func applyFormOptions(r *http.Request, options *importer.RunOptions) error {
	if format := strings.TrimSpace(r.FormValue("format")); format != "" {
		options.Format = format
	}
	if sheet := strings.TrimSpace(r.FormValue("sheet")); sheet != "" {
		options.Sheet = sheet
	}
	if raw := strings.TrimSpace(r.FormValue("fieldnames")); raw != "" {
		names := strings.Split(raw, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
			if names[i] == "" {
				return fmt.Errorf("fieldnames[%d] must not be blank", i)
			}
		}
		options.FieldNames = names
	}
	if r.Form.Has("restkey") {
		restKey := r.FormValue("restkey")
		options.RestKey = &restKey
	}
	return nil
}

func saveUpload(header *multipart.FileHeader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close upload file: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func storeErrorStatus(err error) int {
	if errors.Is(err, storage.ErrBatchNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// uploadFileName keeps the client's base name so format detection and rule
// templates see the original extension.
func uploadFileName(filename string) string {
	base := filepath.Base(strings.TrimSpace(strings.ReplaceAll(filename, `\`, "/")))
	if base == "" || base == "." || base == "/" {
		return "upload"
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "upload"
	}
	return stem + ext
}

// storedSourceName is the source file recorded for upload i. A name already
// taken by an earlier upload of the same request is prefixed with the index;
// upload names never contain a slash, so the result is unique.
func storedSourceName(i int, name string, used map[string]struct{}) string {
	stored := name
	if _, taken := used[stored]; taken {
		stored = fmt.Sprintf("%d/%s", i, name)
	}
	used[stored] = struct{}{}
	return stored
}
