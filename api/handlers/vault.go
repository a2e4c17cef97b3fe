package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/api/types"
)

// VaultHandler handles vault API requests
type VaultHandler struct {
	service types.VaultService
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(svc types.VaultService) *VaultHandler {
	return &VaultHandler{
		service: svc,
	}
}

// Helper to extract path parameters (since we're using http.ServeMux not gorilla/mux)
func extractPathParam(path, prefix, suffix string) string {
	path = strings.TrimPrefix(path, prefix)
	if suffix != "" {
		path = strings.TrimSuffix(path, suffix)
	}
	return path
}

// parseRequestID parses a withdrawal request id from its decimal form
func parseRequestID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	return id, err == nil
}

// GetVaultState handles GET /v1/vault/state
func (h *VaultHandler) GetVaultState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetVaultState()
	if err != nil {
		writeError(w, http.StatusNotFound, "vault_not_initialized", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetVaultStats handles GET /v1/vault/stats
func (h *VaultHandler) GetVaultStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetVaultStats()
	if err != nil {
		writeError(w, http.StatusNotFound, "vault_not_initialized", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetAUM handles GET /v1/vault/aum
func (h *VaultHandler) GetAUM(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetVaultStats()
	if err != nil {
		writeError(w, http.StatusNotFound, "vault_not_initialized", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"aum":             stats.AUM,
		"custody_balance": stats.CustodyBalance,
		"share_price":     stats.SharePrice,
	})
}

// GetAUMHistory handles GET /v1/vault/aum/history
func (h *VaultHandler) GetAUMHistory(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil {
			days = parsed
		}
	}

	history, err := h.service.GetAUMHistory(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"days":    days,
		"total":   len(history),
	})
}

// GetFeePreview handles GET /v1/vault/fees/preview
func (h *VaultHandler) GetFeePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.service.GetFeePreview()
	if err != nil {
		writeError(w, http.StatusNotFound, "vault_not_initialized", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// GetWithdrawalRequest handles GET /v1/vault/requests/{requestId}
func (h *VaultHandler) GetWithdrawalRequest(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("X-Request-ID")
	if raw == "" {
		raw = extractPathParam(r.URL.Path, "/v1/vault/requests/", "")
	}

	requestID, ok := parseRequestID(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "request id must be a decimal number")
		return
	}

	request, err := h.service.GetWithdrawalRequest(requestID)
	if err != nil {
		writeError(w, http.StatusNotFound, "request_not_found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, request)
}

// GetPendingRequests handles GET /v1/vault/requests/pending
func (h *VaultHandler) GetPendingRequests(w http.ResponseWriter, r *http.Request) {
	offset := 0
	limit := 100
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	requests, total, err := h.service.GetPendingRequests(offset, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, "vault_not_initialized", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

// GetUserRequests handles GET /v1/vault/users/{address}/requests
func (h *VaultHandler) GetUserRequests(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-User-Address")
	if user == "" {
		user = extractPathParam(r.URL.Path, "/v1/vault/users/", "/requests")
	}

	requests, err := h.service.GetUserRequests(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     user,
		"requests": requests,
		"total":    len(requests),
	})
}

// EstimateDeposit handles GET /v1/vault/estimate/deposit
func (h *VaultHandler) EstimateDeposit(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	if amountStr == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount query parameter is required")
		return
	}

	amount, ok := math.NewIntFromString(amountStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "invalid amount format")
		return
	}

	estimate, err := h.service.EstimateDeposit(amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "estimate_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, estimate)
}

// EstimateWithdrawal handles GET /v1/vault/estimate/withdrawal
func (h *VaultHandler) EstimateWithdrawal(w http.ResponseWriter, r *http.Request) {
	sharesStr := r.URL.Query().Get("shares")
	if sharesStr == "" {
		writeError(w, http.StatusBadRequest, "missing_shares", "shares query parameter is required")
		return
	}

	shares, ok := math.NewIntFromString(sharesStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_shares", "invalid shares format")
		return
	}

	estimate, err := h.service.EstimateWithdrawal(shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "estimate_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, estimate)
}

// Deposit handles POST /v1/vault/deposit
func (h *VaultHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User   string `json:"user"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.User == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and amount are required")
		return
	}

	amount, ok := math.NewIntFromString(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "invalid amount format")
		return
	}

	result, err := h.service.Deposit(req.User, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "deposit_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// RequestWithdrawal handles POST /v1/vault/withdrawals/request
func (h *VaultHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User   string `json:"user"`
		Shares string `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.User == "" || req.Shares == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and shares are required")
		return
	}

	shares, ok := math.NewIntFromString(req.Shares)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_shares", "invalid shares format")
		return
	}

	result, err := h.service.RequestWithdrawal(req.User, shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "withdrawal_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ApproveWithdrawal handles POST /v1/vault/withdrawals/approve
func (h *VaultHandler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Manager   string `json:"manager"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.Manager == "" || req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "manager and request_id are required")
		return
	}

	requestID, ok := parseRequestID(req.RequestID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "request id must be a decimal number")
		return
	}

	result, err := h.service.ApproveWithdrawal(req.Manager, requestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "approve_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ProcessWithdrawal handles POST /v1/vault/withdrawals/claim
func (h *VaultHandler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User      string `json:"user"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.User == "" || req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and request_id are required")
		return
	}

	requestID, ok := parseRequestID(req.RequestID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "request id must be a decimal number")
		return
	}

	result, err := h.service.ProcessWithdrawal(req.User, requestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "claim_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CancelWithdrawal handles POST /v1/vault/withdrawals/cancel
func (h *VaultHandler) CancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User      string `json:"user"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	if req.User == "" || req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and request_id are required")
		return
	}

	requestID, ok := parseRequestID(req.RequestID)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_id", "request id must be a decimal number")
		return
	}

	result, err := h.service.CancelWithdrawal(req.User, requestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cancel_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CollectFees handles POST /v1/vault/fees/collect
func (h *VaultHandler) CollectFees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	result, err := h.service.CollectFees(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, "collect_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
