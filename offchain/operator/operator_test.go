package operator

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/x/vault/types"
)

func testRequest(id uint64, requester string, createdAt int64) *types.WithdrawalRequest {
	return &types.WithdrawalRequest{
		ID:               id,
		Requester:        requester,
		ShareAmount:      math.NewIntWithDecimal(1, 18),
		SettlementAmount: math.NewInt(1000000),
		CreatedAt:        createdAt,
	}
}

func TestRequestCacheOrdering(t *testing.T) {
	cache := NewRequestCache()

	// Insert out of ID order
	cache.Set(testRequest(5, "cosmos1alice", 100))
	cache.Set(testRequest(1, "cosmos1bob", 200))
	cache.Set(testRequest(3, "cosmos1carol", 300))

	if cache.Len() != 3 {
		t.Fatalf("expected 3 cached requests, got %d", cache.Len())
	}

	all := cache.GetAll()
	wantOrder := []uint64{1, 3, 5}
	for i, request := range all {
		if request.ID != wantOrder[i] {
			t.Errorf("position %d: expected ID %d, got %d", i, wantOrder[i], request.ID)
		}
	}

	if _, ok := cache.Get(3); !ok {
		t.Error("expected request 3 to be cached")
	}
	if _, ok := cache.Get(42); ok {
		t.Error("expected request 42 to be absent")
	}

	if !cache.Delete(3) {
		t.Error("expected Delete(3) to report removal")
	}
	if cache.Delete(3) {
		t.Error("expected second Delete(3) to report absence")
	}
	if cache.Len() != 2 {
		t.Errorf("expected 2 cached requests after delete, got %d", cache.Len())
	}
}

func TestRequestCacheFilters(t *testing.T) {
	cache := NewRequestCache()

	pending := testRequest(1, "cosmos1alice", 100)
	approved := testRequest(2, "cosmos1alice", 200)
	approved.Approved = true
	claimed := testRequest(3, "cosmos1bob", 300)
	claimed.Approved = true
	claimed.Claimed = true

	cache.Set(pending)
	cache.Set(approved)
	cache.Set(claimed)

	byAlice := cache.GetByRequester("cosmos1alice")
	if len(byAlice) != 2 {
		t.Errorf("expected 2 requests for cosmos1alice, got %d", len(byAlice))
	}

	pendingOnly := cache.GetPending()
	if len(pendingOnly) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pendingOnly))
	}
	if pendingOnly[0].ID != 1 {
		t.Errorf("expected pending request 1, got %d", pendingOnly[0].ID)
	}
}

func TestApprovalBuffer(t *testing.T) {
	buffer := NewApprovalBuffer(3)

	buffer.Add(1)
	buffer.AddBatch([]uint64{2, 3})

	if !buffer.IsFull() {
		t.Error("expected buffer to be full at 3 entries")
	}
	if got := buffer.Peek(); len(got) != 3 {
		t.Errorf("expected Peek to return 3 IDs, got %d", len(got))
	}
	if buffer.Len() != 3 {
		t.Errorf("expected Len 3 after Peek, got %d", buffer.Len())
	}

	buffer.Add(4)
	batch := buffer.FlushBatch()
	if len(batch) != 3 {
		t.Fatalf("expected FlushBatch to return 3 IDs, got %d", len(batch))
	}
	if batch[0] != 1 || batch[2] != 3 {
		t.Errorf("expected batch [1 2 3], got %v", batch)
	}
	if buffer.Len() != 1 {
		t.Errorf("expected 1 ID left after FlushBatch, got %d", buffer.Len())
	}

	rest := buffer.Flush()
	if len(rest) != 1 || rest[0] != 4 {
		t.Errorf("expected Flush to return [4], got %v", rest)
	}
	if buffer.Flush() != nil {
		t.Error("expected Flush on empty buffer to return nil")
	}
}

func TestCollectMatured(t *testing.T) {
	op := NewApprovalOperator(nil, NewMockSubmitter())
	op.params.Set(&VaultParams{WithdrawalDelay: 100})

	now := time.Now().Unix()

	// One request past its delay, one still inside it
	if err := op.handleRequested(RequestEvent{Request: testRequest(1, "cosmos1alice", now-200)}); err != nil {
		t.Fatalf("handleRequested: %v", err)
	}
	if err := op.handleRequested(RequestEvent{Request: testRequest(2, "cosmos1bob", now-10)}); err != nil {
		t.Fatalf("handleRequested: %v", err)
	}

	count := op.collectMatured(now)
	if count != 1 {
		t.Fatalf("expected 1 matured request, got %d", count)
	}

	stats := op.GetStats()
	if stats.BufferedApprovals != 1 {
		t.Errorf("expected 1 buffered approval, got %d", stats.BufferedApprovals)
	}
	if stats.ScheduledCount != 1 {
		t.Errorf("expected 1 request still scheduled, got %d", stats.ScheduledCount)
	}

	ids := op.buffer.Peek()
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("expected buffered IDs [1], got %v", ids)
	}
}

func TestCollectMaturedRespectsPause(t *testing.T) {
	op := NewApprovalOperator(nil, NewMockSubmitter())
	op.params.Set(&VaultParams{WithdrawalDelay: 100, Paused: true})

	now := time.Now().Unix()
	if err := op.handleRequested(RequestEvent{Request: testRequest(1, "cosmos1alice", now-200)}); err != nil {
		t.Fatalf("handleRequested: %v", err)
	}

	if count := op.collectMatured(now); count != 0 {
		t.Errorf("expected no approvals buffered while paused, got %d", count)
	}
	if stats := op.GetStats(); stats.ScheduledCount != 1 {
		t.Errorf("expected request to stay scheduled while paused, got %d", stats.ScheduledCount)
	}

	// Unpausing releases the matured request
	op.params.Set(&VaultParams{WithdrawalDelay: 100, Paused: false})
	if count := op.collectMatured(now); count != 1 {
		t.Errorf("expected 1 approval after unpause, got %d", count)
	}
}

func TestCancelRemovesFromSchedule(t *testing.T) {
	op := NewApprovalOperator(nil, NewMockSubmitter())
	op.params.Set(&VaultParams{WithdrawalDelay: 100})

	now := time.Now().Unix()
	if err := op.handleRequested(RequestEvent{Request: testRequest(1, "cosmos1alice", now-200)}); err != nil {
		t.Fatalf("handleRequested: %v", err)
	}
	if err := op.handleCancelled(RequestEvent{Request: &types.WithdrawalRequest{ID: 1}}); err != nil {
		t.Fatalf("handleCancelled: %v", err)
	}

	if _, ok := op.GetRequest(1); ok {
		t.Error("expected cancelled request to be dropped from cache")
	}
	if count := op.collectMatured(now); count != 0 {
		t.Errorf("expected no approvals for cancelled request, got %d", count)
	}
	if stats := op.GetStats(); stats.ScheduledCount != 0 {
		t.Errorf("expected empty schedule after cancel, got %d", stats.ScheduledCount)
	}
}

func TestExternalApprovalUnschedules(t *testing.T) {
	op := NewApprovalOperator(nil, NewMockSubmitter())
	op.params.Set(&VaultParams{WithdrawalDelay: 100})

	now := time.Now().Unix()
	if err := op.handleRequested(RequestEvent{Request: testRequest(1, "cosmos1alice", now-200)}); err != nil {
		t.Fatalf("handleRequested: %v", err)
	}

	// Manager approved it directly; the operator must not resubmit
	approved := testRequest(1, "cosmos1alice", now-200)
	approved.Approved = true
	if err := op.handleApproved(RequestEvent{Request: approved}); err != nil {
		t.Fatalf("handleApproved: %v", err)
	}

	if count := op.collectMatured(now); count != 0 {
		t.Errorf("expected no approvals for externally approved request, got %d", count)
	}
	request, ok := op.GetRequest(1)
	if !ok || !request.Approved {
		t.Error("expected cached request to be marked approved")
	}
}

func TestDelayRaiseReschedules(t *testing.T) {
	op := NewApprovalOperator(nil, NewMockSubmitter())
	op.params.Set(&VaultParams{WithdrawalDelay: 100})

	now := time.Now().Unix()
	if err := op.handleRequested(RequestEvent{Request: testRequest(1, "cosmos1alice", now-150)}); err != nil {
		t.Fatalf("handleRequested: %v", err)
	}

	// Raising the delay rebuilds the schedule with later maturities
	if err := op.handleParamsUpdated(RequestEvent{Params: &VaultParams{WithdrawalDelay: 400}}); err != nil {
		t.Fatalf("handleParamsUpdated: %v", err)
	}

	if count := op.collectMatured(now); count != 0 {
		t.Errorf("expected no approvals under the raised delay, got %d", count)
	}
	maturity, ok := op.NextMaturity()
	if !ok {
		t.Fatal("expected a scheduled maturity")
	}
	if maturity != now-150+400 {
		t.Errorf("expected maturity %d, got %d", now-150+400, maturity)
	}

	if count := op.collectMatured(now + 300); count != 1 {
		t.Errorf("expected 1 approval once the raised delay elapsed, got %d", count)
	}
}

func TestSubmitRetryOnFailure(t *testing.T) {
	mock := NewMockSubmitter()
	op := NewApprovalOperator(nil, mock)
	op.params.Set(&VaultParams{WithdrawalDelay: 100})

	op.cache.Set(testRequest(1, "cosmos1alice", 0))
	op.cache.Set(testRequest(2, "cosmos1bob", 0))
	op.buffer.AddBatch([]uint64{1, 2})

	mock.SetSimulateFailure(true)
	op.submitPendingApprovals(context.Background())

	// Failed batch returns to the buffer
	if op.buffer.Len() != 2 {
		t.Fatalf("expected 2 IDs back in buffer after failure, got %d", op.buffer.Len())
	}
	if len(mock.GetSubmittedApprovals()) != 0 {
		t.Error("expected no recorded approvals after failure")
	}

	mock.SetSimulateFailure(false)
	op.submitPendingApprovals(context.Background())

	if op.buffer.Len() != 0 {
		t.Errorf("expected empty buffer after retry, got %d", op.buffer.Len())
	}
	submitted := mock.GetSubmittedApprovals()
	if len(submitted) != 2 {
		t.Fatalf("expected 2 submitted approvals, got %d", len(submitted))
	}

	// Submitted requests are marked locally so the scan skips them
	for _, id := range []uint64{1, 2} {
		request, ok := op.GetRequest(id)
		if !ok || !request.Approved {
			t.Errorf("expected request %d to be marked approved", id)
		}
	}
}

func TestFeeCollectionWindow(t *testing.T) {
	mock := NewMockSubmitter()
	config := DefaultConfig()
	config.FeeCheckInterval = time.Nanosecond
	op := NewApprovalOperator(config, mock)

	now := time.Now().Unix()

	// No params yet: nothing fires
	op.maybeCollectFees(context.Background(), now)
	if mock.GetFeeCollections() != 0 {
		t.Error("expected no fee collection without params")
	}

	// Window still closed
	op.params.Set(&VaultParams{NextFeeTime: now + 1000})
	op.maybeCollectFees(context.Background(), now)
	if mock.GetFeeCollections() != 0 {
		t.Error("expected no fee collection before the window opens")
	}

	// Window open: fires once and advances the local clock
	op.params.Set(&VaultParams{NextFeeTime: now - 10})
	op.maybeCollectFees(context.Background(), now)
	if mock.GetFeeCollections() != 1 {
		t.Fatalf("expected 1 fee collection, got %d", mock.GetFeeCollections())
	}

	params, ok := op.params.Get()
	if !ok {
		t.Fatal("expected cached params")
	}
	wantNext := now - 10 + types.FeeCollectionInterval
	if params.NextFeeTime != wantNext {
		t.Errorf("expected next fee time %d, got %d", wantNext, params.NextFeeTime)
	}

	// The advanced clock suppresses a refire
	op.maybeCollectFees(context.Background(), now)
	if mock.GetFeeCollections() != 1 {
		t.Errorf("expected fee collection to fire once, got %d", mock.GetFeeCollections())
	}
}

func TestOperatorLifecycle(t *testing.T) {
	mock := NewMockSubmitter()
	config := DefaultConfig()
	config.PollInterval = 10 * time.Millisecond
	config.BatchInterval = 20 * time.Millisecond
	config.FeeCheckInterval = 0

	op := NewApprovalOperator(config, mock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := op.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := op.UpdateVaultParams(&VaultParams{WithdrawalDelay: 1}); err != nil {
		t.Fatalf("UpdateVaultParams: %v", err)
	}

	// Already matured when submitted
	if err := op.SubmitRequest(testRequest(7, "cosmos1alice", time.Now().Unix()-10)); err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if ids := mock.GetSubmittedApprovals(); len(ids) == 1 && ids[0] == 7 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for approval submission, got %v", mock.GetSubmittedApprovals())
		case <-time.After(20 * time.Millisecond):
		}
	}

	if err := op.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}

	stats := op.GetStats()
	if stats.PendingRequests != 0 {
		t.Errorf("expected no pending requests after approval, got %d", stats.PendingRequests)
	}
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		want      string
	}{
		{EventTypeRequested, "requested"},
		{EventTypeCancelled, "cancelled"},
		{EventTypeApproved, "approved"},
		{EventTypeParamsUpdated, "params_updated"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.eventType.String(); got != tc.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tc.eventType, got, tc.want)
		}
	}
}
