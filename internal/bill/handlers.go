package bill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// parseID reads the {id} path value as a bill id
func parseID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// contentTypeForFilename guesses a content type from the file extension,
// for clients that upload without one
func contentTypeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleUploadBill ingests one uploaded bill
func (s *Server) handleUploadBill(w http.ResponseWriter, r *http.Request) {
	// 50MB leaves room for high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForFilename(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	record, err := s.service.Ingest(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error ingesting bill", "filename", header.Filename, "error", err)
		switch {
		case errors.Is(err, ErrDuplicateFile):
			s.metrics.RecordIngest("duplicate")
			jsonError(w, "This file has already been ingested", http.StatusConflict)
		case errors.Is(err, ErrExtractionFailed), errors.Is(err, ErrParseFailed):
			s.metrics.RecordIngest("failed")
			jsonError(w, err.Error(), http.StatusBadGateway)
		default:
			s.metrics.RecordIngest("failed")
			jsonError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	s.metrics.RecordIngest("accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListBills returns all bills, optionally filtered by category
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.List(r.URL.Query().Get("category"))
	if err != nil {
		slog.Error("Error listing bills", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Always return an array, not null
	if bills == nil {
		bills = []*BillRecord{}
	}
	writeJSON(w, bills)
}

// handleGetBill returns a single bill
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, "Invalid bill ID", http.StatusBadRequest)
		return
	}

	record, err := s.service.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(w, "Bill not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting bill", "id", id, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, record)
}

// handleGetBillFile returns the archived original file for a bill
func (s *Server) handleGetBillFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, "Invalid bill ID", http.StatusBadRequest)
		return
	}

	data, contentType, err := s.service.GetFile(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(w, "Bill not found", http.StatusNotFound)
			return
		}
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleReviewBill runs reconciliation for a bill and returns the verdict
func (s *Server) handleReviewBill(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		jsonError(w, "Invalid bill ID", http.StatusBadRequest)
		return
	}

	result, err := s.service.Review(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			jsonError(w, "Bill not found", http.StatusNotFound)
			return
		}
		slog.Error("Error reviewing bill", "id", id, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.metrics.RecordReview(string(result.Verdict), result.TaxInferred)
	writeJSON(w, result)
}

// handleListValidations returns all cached verdicts
func (s *Server) handleListValidations(w http.ResponseWriter, r *http.Request) {
	validations, err := s.service.Validations()
	if err != nil {
		slog.Error("Error listing validations", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if validations == nil {
		validations = []*ValidationRecord{}
	}
	writeJSON(w, validations)
}

// handleSummary returns spend aggregated per category
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary()
	if err != nil {
		slog.Error("Error summarizing bills", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

// handleCompleteness returns the per-bill field audit
func (s *Server) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Completeness()
	if err != nil {
		slog.Error("Error auditing bills", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

// handleClearBills wipes all bills, verdicts and archived files
func (s *Server) handleClearBills(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Clear(); err != nil {
		slog.Error("Error clearing bills", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
