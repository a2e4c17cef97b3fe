package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/api/types"
)

// stubVaultService is a canned-data service for handler tests. Set fail to
// make every method return an error.
type stubVaultService struct {
	fail bool

	lastUser   string
	lastAmount math.Int
}

func (s *stubVaultService) GetVaultState() (*types.VaultStateInfo, error) {
	if s.fail {
		return nil, fmt.Errorf("vault state not found")
	}
	return &types.VaultStateInfo{
		Owner:             "cosmos1owner",
		Manager:           "cosmos1manager",
		FeeCollector:      "cosmos1collector",
		SharePrice:        "1000000",
		HighWaterMark:     "0",
		ManagementFeeBps:  200,
		PerformanceFeeBps: 2000,
		LastFeeCollection: 1700000000,
		WithdrawalDelay:   86400,
		MinDeposit:        "1000000",
		MaxSingleDeposit:  "1000000000000",
		DepositsEnabled:   true,
		Paused:            false,
	}, nil
}

func (s *stubVaultService) GetVaultStats() (*types.VaultStats, error) {
	if s.fail {
		return nil, fmt.Errorf("vault state not found")
	}
	return &types.VaultStats{
		AUM:                 "5000000000",
		CustodyBalance:      "5000000000",
		TotalShares:         "5000000000000000000000",
		LockedShares:        "0",
		SharePrice:          "1000000",
		HighWaterMark:       "5000000000",
		PendingRequestCount: 2,
		PendingRequestValue: "100000000",
		Paused:              false,
	}, nil
}

func (s *stubVaultService) GetAUMHistory(days int) ([]*types.AUMPoint, error) {
	if s.fail {
		return nil, fmt.Errorf("history unavailable")
	}
	return []*types.AUMPoint{
		{Timestamp: 1700000000, AUM: "4900000000", SharePrice: "1000000"},
		{Timestamp: 1700086400, AUM: "5000000000", SharePrice: "1000000"},
	}, nil
}

func (s *stubVaultService) GetFeePreview() (*types.FeePreviewInfo, error) {
	if s.fail {
		return nil, fmt.Errorf("vault state not found")
	}
	return &types.FeePreviewInfo{
		ManagementFee:    "8219178",
		PerformanceFee:   "0",
		TotalFee:         "8219178",
		Collectable:      true,
		NextCollectionAt: 1702592000,
	}, nil
}

func (s *stubVaultService) GetWithdrawalRequest(requestID uint64) (*types.RequestInfo, error) {
	if s.fail || requestID > 10 {
		return nil, fmt.Errorf("withdrawal request %d not found", requestID)
	}
	return &types.RequestInfo{
		RequestID:        requestID,
		Requester:        "cosmos1requester",
		Shares:           "1000000000000000000",
		SettlementAmount: "1000000",
		Status:           "pending",
		RequestedAt:      1700000000,
		AvailableAt:      1700086400,
	}, nil
}

func (s *stubVaultService) GetPendingRequests(offset, limit int) ([]*types.RequestInfo, int, error) {
	if s.fail {
		return nil, 0, fmt.Errorf("vault state not found")
	}
	all := []*types.RequestInfo{
		{RequestID: 0, Requester: "cosmos1a", Status: "pending"},
		{RequestID: 1, Requester: "cosmos1b", Status: "pending"},
		{RequestID: 2, Requester: "cosmos1c", Status: "pending"},
	}
	if offset >= len(all) {
		return []*types.RequestInfo{}, len(all), nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], len(all), nil
}

func (s *stubVaultService) GetUserRequests(user string) ([]*types.RequestInfo, error) {
	if s.fail {
		return nil, fmt.Errorf("query failed")
	}
	if user != "cosmos1requester" {
		return []*types.RequestInfo{}, nil
	}
	return []*types.RequestInfo{
		{RequestID: 0, Requester: user, Status: "approved"},
	}, nil
}

func (s *stubVaultService) EstimateDeposit(amount math.Int) (*types.DepositEstimate, error) {
	if s.fail {
		return nil, fmt.Errorf("vault state not found")
	}
	return &types.DepositEstimate{
		Amount:          amount.String(),
		EstimatedShares: amount.MulRaw(1_000_000_000_000).String(),
		SharePrice:      "1000000",
		MinDeposit:      "1000000",
		MaxDeposit:      "1000000000000",
	}, nil
}

func (s *stubVaultService) EstimateWithdrawal(shares math.Int) (*types.WithdrawalEstimate, error) {
	if s.fail {
		return nil, fmt.Errorf("vault state not found")
	}
	return &types.WithdrawalEstimate{
		Shares:          shares.String(),
		EstimatedAmount: shares.QuoRaw(1_000_000_000_000).String(),
		SharePrice:      "1000000",
		AvailableAt:     1700086400,
		DelaySeconds:    86400,
	}, nil
}

func (s *stubVaultService) Deposit(user string, amount math.Int) (*types.DepositResult, error) {
	if s.fail {
		return nil, fmt.Errorf("deposits are disabled")
	}
	s.lastUser = user
	s.lastAmount = amount
	return &types.DepositResult{
		User:        user,
		Amount:      amount.String(),
		Shares:      amount.MulRaw(1_000_000_000_000).String(),
		SharePrice:  "1000000",
		DepositedAt: 1700000000,
	}, nil
}

func (s *stubVaultService) RequestWithdrawal(user string, shares math.Int) (*types.WithdrawalResult, error) {
	if s.fail {
		return nil, fmt.Errorf("insufficient shares")
	}
	s.lastUser = user
	return &types.WithdrawalResult{
		RequestID:        3,
		User:             user,
		Shares:           shares.String(),
		SettlementAmount: shares.QuoRaw(1_000_000_000_000).String(),
		AvailableAt:      1700086400,
	}, nil
}

func (s *stubVaultService) ApproveWithdrawal(manager string, requestID uint64) (*types.ApprovalResult, error) {
	if s.fail {
		return nil, fmt.Errorf("unauthorized: not the manager")
	}
	return &types.ApprovalResult{
		RequestID:  requestID,
		Shares:     "1000000000000000000",
		ApprovedAt: 1700000100,
	}, nil
}

func (s *stubVaultService) ProcessWithdrawal(user string, requestID uint64) (*types.ClaimResult, error) {
	if s.fail {
		return nil, fmt.Errorf("withdrawal delay has not elapsed")
	}
	return &types.ClaimResult{
		RequestID: requestID,
		Amount:    "1000000",
		ClaimedAt: 1700086500,
	}, nil
}

func (s *stubVaultService) CancelWithdrawal(user string, requestID uint64) (*types.CancelResult, error) {
	if s.fail {
		return nil, fmt.Errorf("withdrawal request %d not found", requestID)
	}
	return &types.CancelResult{
		RequestID:      requestID,
		SharesReturned: "1000000000000000000",
		CancelledAt:    1700000200,
	}, nil
}

func (s *stubVaultService) CollectFees(caller string) (*types.FeeCollectionResult, error) {
	if s.fail {
		return nil, fmt.Errorf("insufficient custody to settle fees")
	}
	return &types.FeeCollectionResult{
		Collected:      true,
		ManagementFee:  "8219178",
		PerformanceFee: "0",
		CollectedAt:    1702592000,
	}, nil
}

func newTestHandler(fail bool) (*VaultHandler, *stubVaultService) {
	svc := &stubVaultService{fail: fail}
	return NewVaultHandler(svc), svc
}

// decodeError pulls the error code out of a writeError response body
func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	code, _ := resp["error"].(string)
	return code
}

// TestGetVaultState tests the vault state endpoint with a live service
func TestGetVaultState(t *testing.T) {
	handler, _ := newTestHandler(false)

	req := httptest.NewRequest("GET", "/v1/vault/state", nil)
	rec := httptest.NewRecorder()
	handler.GetVaultState(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var state types.VaultStateInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if state.SharePrice != "1000000" {
		t.Errorf("expected share price 1000000, got %s", state.SharePrice)
	}
	if state.ManagementFeeBps != 200 {
		t.Errorf("expected management fee 200 bps, got %d", state.ManagementFeeBps)
	}
	if !state.DepositsEnabled {
		t.Error("expected deposits enabled")
	}
}

// TestGetVaultStateNotInitialized tests the 404 path
func TestGetVaultStateNotInitialized(t *testing.T) {
	handler, _ := newTestHandler(true)

	req := httptest.NewRequest("GET", "/v1/vault/state", nil)
	rec := httptest.NewRecorder()
	handler.GetVaultState(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if code := decodeError(t, rec.Body); code != "vault_not_initialized" {
		t.Errorf("expected error code vault_not_initialized, got %s", code)
	}
}

// TestGetAUM tests the AUM summary envelope
func TestGetAUM(t *testing.T) {
	handler, _ := newTestHandler(false)

	req := httptest.NewRequest("GET", "/v1/vault/aum", nil)
	rec := httptest.NewRecorder()
	handler.GetAUM(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["aum"] != "5000000000" {
		t.Errorf("expected aum 5000000000, got %v", resp["aum"])
	}
	if resp["share_price"] != "1000000" {
		t.Errorf("expected share_price 1000000, got %v", resp["share_price"])
	}
}

// TestGetWithdrawalRequestRouting tests id extraction from header and path
func TestGetWithdrawalRequestRouting(t *testing.T) {
	testCases := []struct {
		name           string
		path           string
		headerID       string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "id from header",
			path:           "/v1/vault/requests/ignored",
			headerID:       "3",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "id from path",
			path:           "/v1/vault/requests/5",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "id zero is valid",
			path:           "/v1/vault/requests/0",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-numeric id",
			path:           "/v1/vault/requests/abc",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_request_id",
		},
		{
			name:           "negative id",
			path:           "/v1/vault/requests/-1",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_request_id",
		},
		{
			name:           "unknown id",
			path:           "/v1/vault/requests/99",
			expectedStatus: http.StatusNotFound,
			expectedCode:   "request_not_found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newTestHandler(false)

			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.headerID != "" {
				req.Header.Set("X-Request-ID", tc.headerID)
			}
			rec := httptest.NewRecorder()
			handler.GetWithdrawalRequest(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, rec.Code)
			}
			if tc.expectedCode != "" {
				if code := decodeError(t, rec.Body); code != tc.expectedCode {
					t.Errorf("expected error code %s, got %s", tc.expectedCode, code)
				}
			}
		})
	}
}

// TestGetPendingRequestsPagination tests offset/limit handling
func TestGetPendingRequestsPagination(t *testing.T) {
	testCases := []struct {
		name          string
		query         string
		expectedCount int
		expectedTotal int
	}{
		{"default window", "", 3, 3},
		{"limit one", "?limit=1", 1, 3},
		{"offset past end", "?offset=10", 0, 3},
		{"offset with limit", "?offset=1&limit=1", 1, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newTestHandler(false)

			req := httptest.NewRequest("GET", "/v1/vault/requests/pending"+tc.query, nil)
			rec := httptest.NewRecorder()
			handler.GetPendingRequests(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}

			var resp struct {
				Requests []*types.RequestInfo `json:"requests"`
				Total    int                  `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Requests) != tc.expectedCount {
				t.Errorf("expected %d requests, got %d", tc.expectedCount, len(resp.Requests))
			}
			if resp.Total != tc.expectedTotal {
				t.Errorf("expected total %d, got %d", tc.expectedTotal, resp.Total)
			}
		})
	}
}

// TestGetUserRequests tests the per-user request listing
func TestGetUserRequests(t *testing.T) {
	handler, _ := newTestHandler(false)

	req := httptest.NewRequest("GET", "/v1/vault/users/cosmos1requester/requests", nil)
	req.Header.Set("X-User-Address", "cosmos1requester")
	rec := httptest.NewRecorder()
	handler.GetUserRequests(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		User     string               `json:"user"`
		Requests []*types.RequestInfo `json:"requests"`
		Total    int                  `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User != "cosmos1requester" {
		t.Errorf("expected user cosmos1requester, got %s", resp.User)
	}
	if resp.Total != 1 {
		t.Errorf("expected 1 request, got %d", resp.Total)
	}
}

// TestEstimateDeposit tests query parameter validation
func TestEstimateDeposit(t *testing.T) {
	testCases := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCode   string
	}{
		{"valid amount", "?amount=5000000", http.StatusOK, ""},
		{"missing amount", "", http.StatusBadRequest, "missing_amount"},
		{"malformed amount", "?amount=12x4", http.StatusBadRequest, "invalid_amount"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newTestHandler(false)

			req := httptest.NewRequest("GET", "/v1/vault/estimate/deposit"+tc.query, nil)
			rec := httptest.NewRecorder()
			handler.EstimateDeposit(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, rec.Code)
			}
			if tc.expectedCode != "" {
				if code := decodeError(t, rec.Body); code != tc.expectedCode {
					t.Errorf("expected error code %s, got %s", tc.expectedCode, code)
				}
			}
		})
	}
}

// TestDepositHandler tests the deposit endpoint body validation
func TestDepositHandler(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		failService    bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid deposit",
			body:           `{"user": "cosmos1abc", "amount": "5000000"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing user",
			body:           `{"amount": "5000000"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_fields",
		},
		{
			name:           "missing amount",
			body:           `{"user": "cosmos1abc"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_fields",
		},
		{
			name:           "malformed amount",
			body:           `{"user": "cosmos1abc", "amount": "five"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_amount",
		},
		{
			name:           "invalid json",
			body:           `{not json}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_json",
		},
		{
			name:           "service rejection",
			body:           `{"user": "cosmos1abc", "amount": "5000000"}`,
			failService:    true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "deposit_failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, svc := newTestHandler(tc.failService)

			req := httptest.NewRequest("POST", "/v1/vault/deposit", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			handler.Deposit(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if tc.expectedCode != "" {
				if code := decodeError(t, rec.Body); code != tc.expectedCode {
					t.Errorf("expected error code %s, got %s", tc.expectedCode, code)
				}
				return
			}

			var result types.DepositResult
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if result.User != "cosmos1abc" {
				t.Errorf("expected user cosmos1abc, got %s", result.User)
			}
			if svc.lastAmount.String() != "5000000" {
				t.Errorf("expected service to receive amount 5000000, got %s", svc.lastAmount)
			}
		})
	}
}

// TestApproveWithdrawalHandler tests request id parsing in the approve body
func TestApproveWithdrawalHandler(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid approval",
			body:           `{"manager": "cosmos1manager", "request_id": "2"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "request id zero",
			body:           `{"manager": "cosmos1manager", "request_id": "0"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing manager",
			body:           `{"request_id": "2"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_fields",
		},
		{
			name:           "missing request id",
			body:           `{"manager": "cosmos1manager"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_fields",
		},
		{
			name:           "non-numeric request id",
			body:           `{"manager": "cosmos1manager", "request_id": "two"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_request_id",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := newTestHandler(false)

			req := httptest.NewRequest("POST", "/v1/vault/withdrawals/approve", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			handler.ApproveWithdrawal(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if tc.expectedCode != "" {
				if code := decodeError(t, rec.Body); code != tc.expectedCode {
					t.Errorf("expected error code %s, got %s", tc.expectedCode, code)
				}
			}
		})
	}
}

// TestClaimRejectedBeforeDelay tests that service-side delay errors surface
func TestClaimRejectedBeforeDelay(t *testing.T) {
	handler, _ := newTestHandler(true)

	body := `{"user": "cosmos1requester", "request_id": "0"}`
	req := httptest.NewRequest("POST", "/v1/vault/withdrawals/claim", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ProcessWithdrawal(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec.Body); code != "claim_failed" {
		t.Errorf("expected error code claim_failed, got %s", code)
	}
}

// TestCollectFeesHandler tests the fee collection endpoint
func TestCollectFeesHandler(t *testing.T) {
	handler, _ := newTestHandler(false)

	req := httptest.NewRequest("POST", "/v1/vault/fees/collect", bytes.NewBufferString(`{"caller": "cosmos1anyone"}`))
	rec := httptest.NewRecorder()
	handler.CollectFees(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var result types.FeeCollectionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Collected {
		t.Error("expected collected to be true")
	}
	if result.ManagementFee != "8219178" {
		t.Errorf("expected management fee 8219178, got %s", result.ManagementFee)
	}
}
