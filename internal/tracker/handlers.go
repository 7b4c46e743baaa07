package tracker

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/finance-tracker/internal/reward"
	"github.com/zombor/finance-tracker/internal/scanning"
)

// maxUploadSize is large enough for high-resolution phone photos
const maxUploadSize = int64(50 << 20)

// writeJSON encodes v with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrGoalCompleted), errors.Is(err, reward.ErrInsufficientPoints):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, scanning.ErrUnsupportedDocument):
		writeError(w, "Unsupported file type. Upload an image or a PDF.", http.StatusBadRequest)
	case errors.Is(err, scanning.ErrNoRecognizer):
		writeError(w, "No OCR provider is configured. Only PDFs with a text layer can be scanned.", http.StatusUnprocessableEntity)
	case errors.Is(err, scanning.ErrNoText):
		writeError(w, "No text could be read from the document.", http.StatusUnprocessableEntity)
	default:
		slog.Error("Error "+action, "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

type transactionRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// parseDate accepts RFC 3339 timestamps or plain calendar dates
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// handleListTransactions returns all transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.service.ListTransactions()
	if err != nil {
		writeServiceError(w, "listing transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// handleCreateTransaction records a manual income or expense
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, "Invalid date. Use YYYY-MM-DD.", http.StatusBadRequest)
		return
	}

	t, delta, err := s.service.RecordTransaction(TransactionInput{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        reward.TransactionKind(strings.ToLower(strings.TrimSpace(req.Type))),
		Category:    req.Category,
		Date:        date,
	})
	if err != nil {
		writeServiceError(w, "recording transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": t,
		"rewards":     delta,
	})
}

// handleGetTransaction returns a single transaction
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.GetTransaction(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "getting transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleGetTransactionDocument returns the scanned file behind a transaction
func (s *Server) handleGetTransactionDocument(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetTransactionDocument(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "getting document", err)
		return
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteTransaction deletes a transaction
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTransaction(r.PathValue("id")); err != nil {
		writeServiceError(w, "deleting transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearTransactions deletes every transaction
func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearTransactions(); err != nil {
		writeServiceError(w, "clearing transactions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary returns the budget overview
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary()
	if err != nil {
		writeServiceError(w, "computing summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleEvaluateSavings rewards the current savings rate
func (s *Server) handleEvaluateSavings(w http.ResponseWriter, r *http.Request) {
	delta, err := s.service.EvaluateSavings()
	if err != nil {
		writeServiceError(w, "evaluating savings", err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// handleAdvice returns budget tips
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	advice, err := s.service.RequestAdvice()
	if err != nil {
		writeServiceError(w, "requesting advice", err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

// handleListGoals returns goals with progress
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.service.ListGoals()
	if err != nil {
		writeServiceError(w, "listing goals", err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// handleCreateGoal creates a savings goal
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	goal, delta, err := s.service.CreateGoal(req.Name, req.Amount)
	if err != nil {
		writeServiceError(w, "creating goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"goal":    goal,
		"rewards": delta,
	})
}

// handleCompleteGoal marks a goal complete
func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	goal, delta, err := s.service.CompleteGoal(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "completing goal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"goal":    goal,
		"rewards": delta,
	})
}

// handleDeleteGoal deletes a goal
func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteGoal(r.PathValue("id")); err != nil {
		writeServiceError(w, "deleting goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadContentType falls back to the file extension when the part has no type
func uploadContentType(header string, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(header))
	if contentType != "" {
		return contentType
	}
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

// handleScan reads an uploaded receipt or PDF and records its total
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	result, err := s.service.ScanDocument(header.Filename, data, contentType)
	if err != nil {
		writeServiceError(w, "scanning document", err)
		return
	}

	code := http.StatusOK
	if result.Found {
		code = http.StatusCreated
	}
	writeJSON(w, code, result)
}

// handleRewards returns the reward ledger with progress
func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Rewards()
	if err != nil {
		writeServiceError(w, "loading rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCheckIn grants the daily login reward
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	delta, err := s.service.CheckIn()
	if err != nil {
		writeServiceError(w, "checking in", err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

// handleRedeem converts points to cash back
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	redemption, err := s.service.Redeem()
	if err != nil {
		writeServiceError(w, "redeeming points", err)
		return
	}
	writeJSON(w, http.StatusOK, redemption)
}

// handleRenameUser changes the display name
func (s *Server) handleRenameUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	ledger, err := s.service.RenameUser(req.Username)
	if err != nil {
		writeServiceError(w, "renaming user", err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

// handleNotifications drains queued notifications
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notifications.Drain())
}
