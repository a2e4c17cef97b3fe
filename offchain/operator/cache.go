package operator

import (
	"sync"
	"time"

	"github.com/huandu/skiplist"

	"github.com/openalpha/fundvault/x/vault/types"
)

// requestKeyAsc orders withdrawal request IDs ascending. IDs are
// allocated sequentially on chain, so ascending ID order is creation
// order.
type requestKeyAsc struct{}

func (c requestKeyAsc) Compare(lhs, rhs interface{}) int {
	l := lhs.(uint64)
	r := rhs.(uint64)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (c requestKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(uint64))
}

// RequestCache is a thread-safe, ID-ordered cache of withdrawal requests
// the operator is tracking. Lookups and removals are O(log n) and
// iteration yields requests in creation order.
type RequestCache struct {
	mu       sync.RWMutex
	requests *skiplist.SkipList
}

// NewRequestCache creates a new request cache
func NewRequestCache() *RequestCache {
	return &RequestCache{
		requests: skiplist.New(requestKeyAsc{}),
	}
}

// Get retrieves a request by ID
func (rc *RequestCache) Get(requestID uint64) (*types.WithdrawalRequest, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	elem := rc.requests.Get(requestID)
	if elem == nil {
		return nil, false
	}
	return elem.Value.(*types.WithdrawalRequest), true
}

// Set stores a request, replacing any existing entry with the same ID
func (rc *RequestCache) Set(request *types.WithdrawalRequest) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.requests.Set(request.ID, request)
}

// Delete removes a request by ID, returning whether it was present
func (rc *RequestCache) Delete(requestID uint64) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.requests.Remove(requestID) != nil
}

// Len returns the number of cached requests
func (rc *RequestCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	return rc.requests.Len()
}

// Clear removes all cached requests
func (rc *RequestCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.requests = skiplist.New(requestKeyAsc{})
}

// GetAll returns all cached requests in ascending ID order
func (rc *RequestCache) GetAll() []*types.WithdrawalRequest {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	requests := make([]*types.WithdrawalRequest, 0, rc.requests.Len())
	for elem := rc.requests.Front(); elem != nil; elem = elem.Next() {
		requests = append(requests, elem.Value.(*types.WithdrawalRequest))
	}
	return requests
}

// GetByRequester returns all cached requests created by the given address
func (rc *RequestCache) GetByRequester(requester string) []*types.WithdrawalRequest {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	var requests []*types.WithdrawalRequest
	for elem := rc.requests.Front(); elem != nil; elem = elem.Next() {
		request := elem.Value.(*types.WithdrawalRequest)
		if request.Requester == requester {
			requests = append(requests, request)
		}
	}
	return requests
}

// GetPending returns all cached requests still awaiting approval
func (rc *RequestCache) GetPending() []*types.WithdrawalRequest {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	var requests []*types.WithdrawalRequest
	for elem := rc.requests.Front(); elem != nil; elem = elem.Next() {
		request := elem.Value.(*types.WithdrawalRequest)
		if request.IsPending() {
			requests = append(requests, request)
		}
	}
	return requests
}

// ApprovalBuffer accumulates matured request IDs for batch submission
type ApprovalBuffer struct {
	mu      sync.Mutex
	ids     []uint64
	maxSize int
}

// NewApprovalBuffer creates a new approval buffer
func NewApprovalBuffer(maxSize int) *ApprovalBuffer {
	if maxSize <= 0 {
		maxSize = 50 // default batch size
	}
	return &ApprovalBuffer{
		ids:     make([]uint64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends a request ID to the buffer
func (ab *ApprovalBuffer) Add(requestID uint64) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.ids = append(ab.ids, requestID)
}

// AddBatch appends multiple request IDs to the buffer
func (ab *ApprovalBuffer) AddBatch(requestIDs []uint64) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.ids = append(ab.ids, requestIDs...)
}

// Flush returns all buffered IDs and clears the buffer
func (ab *ApprovalBuffer) Flush() []uint64 {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if len(ab.ids) == 0 {
		return nil
	}

	ids := ab.ids
	ab.ids = make([]uint64, 0, ab.maxSize)
	return ids
}

// FlushBatch returns up to maxSize buffered IDs and removes them from the buffer
func (ab *ApprovalBuffer) FlushBatch() []uint64 {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if len(ab.ids) == 0 {
		return nil
	}

	batchSize := ab.maxSize
	if len(ab.ids) < batchSize {
		batchSize = len(ab.ids)
	}

	batch := make([]uint64, batchSize)
	copy(batch, ab.ids[:batchSize])
	ab.ids = ab.ids[batchSize:]
	return batch
}

// Len returns the number of buffered IDs
func (ab *ApprovalBuffer) Len() int {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	return len(ab.ids)
}

// IsFull returns whether the buffer has reached a full batch
func (ab *ApprovalBuffer) IsFull() bool {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	return len(ab.ids) >= ab.maxSize
}

// Clear discards all buffered IDs
func (ab *ApprovalBuffer) Clear() {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.ids = make([]uint64, 0, ab.maxSize)
}

// Peek returns a copy of the buffered IDs without removing them
func (ab *ApprovalBuffer) Peek() []uint64 {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ids := make([]uint64, len(ab.ids))
	copy(ids, ab.ids)
	return ids
}

// VaultParams is the slice of vault state the operator needs to schedule
// approvals: the delay that gates them, the pause flag that blocks them,
// and the fee clock for permissionless collection.
type VaultParams struct {
	WithdrawalDelay int64     `json:"withdrawal_delay"`
	Paused          bool      `json:"paused"`
	Manager         string    `json:"manager"`
	SharePrice      string    `json:"share_price"`
	NextFeeTime     int64     `json:"next_fee_time"`
	LastUpdated     time.Time `json:"last_updated"`
}

// VaultParamsCache holds the most recently observed vault parameters
type VaultParamsCache struct {
	mu     sync.RWMutex
	params *VaultParams
}

// NewVaultParamsCache creates a new params cache
func NewVaultParamsCache() *VaultParamsCache {
	return &VaultParamsCache{}
}

// Get returns the cached params, or false if none have been observed yet
func (vc *VaultParamsCache) Get() (*VaultParams, bool) {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	if vc.params == nil {
		return nil, false
	}
	return vc.params, true
}

// Set replaces the cached params and stamps the update time
func (vc *VaultParamsCache) Set(params *VaultParams) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	params.LastUpdated = time.Now()
	vc.params = params
}

// WithdrawalDelay returns the cached delay, falling back to the module
// default when no params have been observed
func (vc *VaultParamsCache) WithdrawalDelay() int64 {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	if vc.params == nil {
		return types.DefaultWithdrawalDelay
	}
	return vc.params.WithdrawalDelay
}

// IsPaused returns the cached pause flag
func (vc *VaultParamsCache) IsPaused() bool {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.params != nil && vc.params.Paused
}

// Clear discards the cached params
func (vc *VaultParamsCache) Clear() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	vc.params = nil
}
