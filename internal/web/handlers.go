package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/smartmart/internal/core"
	"github.com/JonMunkholm/smartmart/internal/logging"
	"github.com/JonMunkholm/smartmart/internal/web/templates"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to a temp file.
const multipartMemory = 32 << 20

// importResponse is returned by a successful import.
type importResponse struct {
	Message string `json:"message"`
	*core.ImportResult
}

// handleIndex renders the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(s.service.Tables()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleHealth reports database reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

// handleList returns every row of a table as a JSON array.
func (s *Server) handleList(tableKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.service.List(r.Context(), tableKey)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, rows)
	}
}

// handleCreate stores one row from a JSON body and echoes it back with its id.
func (s *Server) handleCreate(tableKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := s.service.Create(r.Context(), tableKey, r.Body)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, row)
	}
}

// handleExportCSV streams a table as CSV. Once the header row is out the
// status is committed, so a later failure aborts the response.
func (s *Server) handleExportCSV(tableKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", tableKey))

		n, err := s.service.ExportCSV(r.Context(), tableKey, w)
		logger := logging.FromContext(r.Context())
		if err != nil {
			logger.Error("csv export aborted", "table", tableKey, "rows", n, "error", err)
			// The 200 and part of the body are already out. Drop the
			// connection so the client sees a failed transfer instead of
			// a short file.
			panic(http.ErrAbortHandler)
		}
		logger.Debug("csv export complete", "table", tableKey, "rows", n)
	}
}

// handleExportXLSX writes a table as a workbook. Nothing reaches the client
// until the workbook is complete, so failures still get an error response.
func (s *Server) handleExportXLSX(tableKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", tableKey))

		var buf bytes.Buffer
		n, err := s.service.ExportXLSX(r.Context(), tableKey, &buf)
		if err != nil {
			w.Header().Del("Content-Disposition")
			respondError(w, r, err)
			return
		}

		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := buf.WriteTo(w); err != nil {
			logging.FromContext(r.Context()).Error("xlsx export write", "table", tableKey, "error", err)
			return
		}
		logging.FromContext(r.Context()).Debug("xlsx export complete", "table", tableKey, "rows", n)
	}
}

// handleImportCSV imports the multipart field "file" into a table. With
// ?dry_run=true the file is checked but nothing is written.
func (s *Server) handleImportCSV(tableKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxSize := s.cfg.Import.MaxFileSize
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
				respondError(w, r, fmt.Errorf("%w (limit %d bytes)", errFileTooLarge, maxSize))
				return
			}
			respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, r, errNoFile)
			return
		}
		defer file.Close()

		importFn := s.service.ImportCSV
		if dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run")); dryRun {
			importFn = s.service.PreviewCSV
		}

		result, err := importFn(r.Context(), tableKey, header.Filename, file)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, importResponse{
			Message:      result.Message(),
			ImportResult: result,
		})
	}
}

// handleImportHistory lists recent imports, optionally for one entity.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)

	history, err := s.service.ImportHistory(r.Context(), entity, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, history)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
