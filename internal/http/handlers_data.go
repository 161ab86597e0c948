package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// maxImportSize bounds uploaded documents.
const maxImportSize = 8 << 20

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.gateway.Settings(r.Context())
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Settings read failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to read settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var settings core.Settings
		if err := decodeBody(r, &settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.gateway.SaveSettings(r.Context(), settings); err != nil {
			s.logger.ErrorContext(r.Context(), "Settings save failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		theme, err := s.gateway.Theme(r.Context())
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Theme read failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to read theme")
			return
		}
		writeJSON(w, http.StatusOK, map[string]core.Theme{"theme": theme})

	case http.MethodPut:
		var body struct {
			Theme core.Theme `json:"theme"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !body.Theme.IsValid() {
			writeError(w, http.StatusUnprocessableEntity, "theme must be light or dark")
			return
		}
		if err := s.gateway.SaveTheme(r.Context(), body.Theme); err != nil {
			s.logger.ErrorContext(r.Context(), "Theme save failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to save theme")
			return
		}
		writeJSON(w, http.StatusOK, map[string]core.Theme{"theme": body.Theme})

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleExport serves the full dataset as a downloadable JSON document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data, err := s.gateway.ExportJSON(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export failed", log.FieldError, err, log.FieldOperation, log.OpExport)
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}
	filename := "financeflow-export-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport validates and applies an uploaded document, then reloads
// the record store from storage.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := s.gateway.ImportData(r.Context(), data); err != nil {
		if errors.Is(err, storage.ErrInvalidImport) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Import failed", log.FieldError, err, log.FieldOperation, log.OpImport)
		writeError(w, http.StatusInternalServerError, "failed to import data")
		return
	}
	if err := s.store.Reload(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Reload after import failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to reload data")
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, map[string]bool{"imported": true})
}

// backupSummary lists a snapshot without its payload.
type backupSummary struct {
	Index     int    `json:"index"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
	Size      int    `json:"size"`
}

func (s *Server) handleBackups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		backups, err := s.gateway.Backups(r.Context())
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Backup list failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "failed to list backups")
			return
		}
		summaries := make([]backupSummary, len(backups))
		for i, b := range backups {
			summaries[i] = backupSummary{
				Index:     i,
				Timestamp: b.Timestamp,
				Version:   b.Version,
				Size:      len(b.Data),
			}
		}
		writeJSON(w, http.StatusOK, summaries)

	case http.MethodPost:
		if err := s.gateway.CreateBackup(r.Context()); err != nil {
			s.logger.ErrorContext(r.Context(), "Backup failed", log.FieldError, err, log.FieldOperation, log.OpBackup)
			writeError(w, http.StatusInternalServerError, "failed to create backup")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"created": true})

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBackupRestore applies the snapshot named by index:
// POST /api/backups/{index}/restore
func (s *Server) handleBackupRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	suffix := pathSuffix(r, "/api/backups/")
	idxStr, ok := strings.CutSuffix(suffix, "/restore")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	index, err := strconv.Atoi(idxStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup index")
		return
	}
	if err := s.gateway.RestoreBackup(r.Context(), index); err != nil {
		if errors.Is(err, storage.ErrBackupNotFound) {
			writeError(w, http.StatusNotFound, "backup not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Restore failed", log.FieldError, err, log.FieldOperation, log.OpRestore)
		writeError(w, http.StatusInternalServerError, "failed to restore backup")
		return
	}
	if err := s.store.Reload(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Reload after restore failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to reload data")
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, map[string]bool{"restored": true})
}

func (s *Server) handleStorageInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	info, err := s.gateway.Info(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Storage info failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to read storage info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleClearData wipes all stored keys and empties the record store.
func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.gateway.ClearAllData(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Clear all data failed", log.FieldError, err, log.FieldOperation, log.OpDelete)
		writeError(w, http.StatusInternalServerError, "failed to clear data")
		return
	}
	if err := s.store.Reload(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Reload after clear failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to reload data")
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
