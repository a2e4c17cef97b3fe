package operator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/openalpha/fundvault/x/vault/types"
)

// scheduleDegree is the B-tree degree for the maturity schedule
const scheduleDegree = 32

// Config holds operator daemon configuration
type Config struct {
	BatchSize        int           // Max approvals per submitted batch
	BatchInterval    time.Duration // How often to flush the approval buffer
	PollInterval     time.Duration // How often to scan the maturity schedule
	FeeCheckInterval time.Duration // How often to check the fee window (0 disables)
	WebSocketURL     string        // Chain event subscription endpoint
	ChainRPCURL      string        // Chain RPC endpoint
}

// DefaultConfig returns default operator configuration
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        50,
		BatchInterval:    2 * time.Second,
		PollInterval:     1 * time.Second,
		FeeCheckInterval: 1 * time.Minute,
		WebSocketURL:     "ws://localhost:26657/websocket",
		ChainRPCURL:      "http://localhost:26657",
	}
}

// EventType identifies the kind of withdrawal lifecycle event
type EventType int

const (
	// EventTypeRequested indicates a new withdrawal request was observed
	EventTypeRequested EventType = iota
	// EventTypeCancelled indicates a request was cancelled by its owner
	EventTypeCancelled
	// EventTypeApproved indicates a request was approved outside the operator
	EventTypeApproved
	// EventTypeParamsUpdated indicates vault parameters changed
	EventTypeParamsUpdated
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventTypeRequested:
		return "requested"
	case EventTypeCancelled:
		return "cancelled"
	case EventTypeApproved:
		return "approved"
	case EventTypeParamsUpdated:
		return "params_updated"
	default:
		return "unknown"
	}
}

// RequestEvent is a withdrawal lifecycle event fed into the operator
type RequestEvent struct {
	Type      EventType
	Request   *types.WithdrawalRequest
	Params    *VaultParams
	Timestamp time.Time
}

// scheduleItem is a maturity schedule entry ordered by eligibility time,
// then request ID for determinism at equal times.
type scheduleItem struct {
	availableAt int64
	requestID   uint64
}

// Less implements btree.Item
func (s *scheduleItem) Less(than btree.Item) bool {
	other := than.(*scheduleItem)
	if s.availableAt != other.availableAt {
		return s.availableAt < other.availableAt
	}
	return s.requestID < other.requestID
}

// ApprovalOperator watches withdrawal requests, waits out the vault's
// withdrawal delay, and submits approvals in batches. Requests enter via
// the event channel, sit in a B-tree ordered by eligibility time, and
// move to the approval buffer once matured. A separate loop flushes the
// buffer to the configured submitter.
type ApprovalOperator struct {
	config    *Config
	cache     *RequestCache
	buffer    *ApprovalBuffer
	params    *VaultParamsCache
	submitter ApprovalSubmitter

	schedule *btree.BTree // *scheduleItem ordered by (availableAt, requestID)
	mu       sync.RWMutex // guards schedule

	lastFeeCheck time.Time

	eventCh chan RequestEvent
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewApprovalOperator creates a new approval operator
func NewApprovalOperator(config *Config, submitter ApprovalSubmitter) *ApprovalOperator {
	if config == nil {
		config = DefaultConfig()
	}
	if submitter == nil {
		submitter = NewMockSubmitter()
	}

	return &ApprovalOperator{
		config:    config,
		cache:     NewRequestCache(),
		buffer:    NewApprovalBuffer(config.BatchSize),
		params:    NewVaultParamsCache(),
		submitter: submitter,
		schedule:  btree.New(scheduleDegree),
		eventCh:   make(chan RequestEvent, 1000),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the operator loops
func (o *ApprovalOperator) Start(ctx context.Context) error {
	o.wg.Add(3)

	go o.eventLoop(ctx)
	go o.scheduleLoop(ctx)
	go o.batchLoop(ctx)

	log.Println("Approval operator started")
	return nil
}

// Stop shuts the operator down and waits for its loops to exit
func (o *ApprovalOperator) Stop() error {
	close(o.stopCh)
	o.wg.Wait()
	log.Println("Approval operator stopped")
	return nil
}

// eventLoop consumes withdrawal lifecycle events
func (o *ApprovalOperator) eventLoop(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case event := <-o.eventCh:
			if err := o.handleEvent(event); err != nil {
				log.Printf("Error handling %s event: %v", event.Type, err)
			}
		}
	}
}

// scheduleLoop periodically moves matured requests into the approval
// buffer and checks whether the fee window has opened
func (o *ApprovalOperator) scheduleLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			now := time.Now().Unix()
			o.collectMatured(now)
			o.maybeCollectFees(ctx, now)
		}
	}
}

// batchLoop periodically flushes buffered approvals to the submitter
func (o *ApprovalOperator) batchLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.config.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			// Final flush before shutdown
			o.submitPendingApprovals(ctx)
			return
		case <-ticker.C:
			o.submitPendingApprovals(ctx)
		}
	}
}

// handleEvent dispatches an event to its handler
func (o *ApprovalOperator) handleEvent(event RequestEvent) error {
	switch event.Type {
	case EventTypeRequested:
		return o.handleRequested(event)
	case EventTypeCancelled:
		return o.handleCancelled(event)
	case EventTypeApproved:
		return o.handleApproved(event)
	case EventTypeParamsUpdated:
		return o.handleParamsUpdated(event)
	default:
		return fmt.Errorf("unknown event type: %v", event.Type)
	}
}

// handleRequested tracks a new withdrawal request and schedules its approval
func (o *ApprovalOperator) handleRequested(event RequestEvent) error {
	request := event.Request
	if request == nil {
		return fmt.Errorf("requested event missing request")
	}

	o.cache.Set(request)

	if !request.IsPending() {
		return nil
	}

	availableAt := request.CreatedAt + o.params.WithdrawalDelay()

	o.mu.Lock()
	o.schedule.ReplaceOrInsert(&scheduleItem{
		availableAt: availableAt,
		requestID:   request.ID,
	})
	o.mu.Unlock()

	return nil
}

// handleCancelled drops a cancelled request from the cache and schedule
func (o *ApprovalOperator) handleCancelled(event RequestEvent) error {
	if event.Request == nil {
		return fmt.Errorf("cancelled event missing request")
	}
	requestID := event.Request.ID

	cached, ok := o.cache.Get(requestID)
	o.cache.Delete(requestID)
	if !ok {
		return nil
	}

	// Remove the schedule entry keyed by the delay in force at insert
	// time. The maturity scan drops stale entries whose request is no
	// longer cached, so a mismatched key here is harmless.
	o.mu.Lock()
	o.schedule.Delete(&scheduleItem{
		availableAt: cached.CreatedAt + o.params.WithdrawalDelay(),
		requestID:   requestID,
	})
	o.mu.Unlock()

	return nil
}

// handleApproved records an approval that happened outside the operator
func (o *ApprovalOperator) handleApproved(event RequestEvent) error {
	request := event.Request
	if request == nil {
		return fmt.Errorf("approved event missing request")
	}

	o.cache.Set(request)

	o.mu.Lock()
	o.schedule.Delete(&scheduleItem{
		availableAt: request.CreatedAt + o.params.WithdrawalDelay(),
		requestID:   request.ID,
	})
	o.mu.Unlock()

	return nil
}

// handleParamsUpdated refreshes cached vault params and rebuilds the
// schedule when the withdrawal delay changed
func (o *ApprovalOperator) handleParamsUpdated(event RequestEvent) error {
	if event.Params == nil {
		return fmt.Errorf("params update event missing params")
	}

	previousDelay := o.params.WithdrawalDelay()
	o.params.Set(event.Params)

	if event.Params.WithdrawalDelay != previousDelay {
		o.rebuildSchedule()
	}
	return nil
}

// rebuildSchedule recomputes every pending request's eligibility time
// under the current delay
func (o *ApprovalOperator) rebuildSchedule() {
	delay := o.params.WithdrawalDelay()
	pending := o.cache.GetPending()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.schedule = btree.New(scheduleDegree)
	for _, request := range pending {
		o.schedule.ReplaceOrInsert(&scheduleItem{
			availableAt: request.CreatedAt + delay,
			requestID:   request.ID,
		})
	}
}

// collectMatured pops schedule entries whose eligibility time has passed
// and buffers them for submission. Returns the number buffered.
func (o *ApprovalOperator) collectMatured(now int64) int {
	// Approvals revert while the vault is paused; leave entries scheduled
	if o.params.IsPaused() {
		return 0
	}
	delay := o.params.WithdrawalDelay()

	o.mu.Lock()
	var matured []*scheduleItem
	o.schedule.Ascend(func(item btree.Item) bool {
		entry := item.(*scheduleItem)
		if entry.availableAt > now {
			return false
		}
		matured = append(matured, entry)
		return true
	})
	for _, entry := range matured {
		o.schedule.Delete(entry)
	}
	o.mu.Unlock()

	count := 0
	for _, entry := range matured {
		request, ok := o.cache.Get(entry.requestID)
		if !ok || !request.IsPending() {
			// Cancelled or approved since scheduling
			continue
		}
		if !request.DelayElapsed(now, delay) {
			// Delay was raised after scheduling; push the entry back
			o.mu.Lock()
			o.schedule.ReplaceOrInsert(&scheduleItem{
				availableAt: request.CreatedAt + delay,
				requestID:   entry.requestID,
			})
			o.mu.Unlock()
			continue
		}
		o.buffer.Add(entry.requestID)
		count++
	}
	return count
}

// maybeCollectFees fires a fee collection when the window has opened
func (o *ApprovalOperator) maybeCollectFees(ctx context.Context, now int64) {
	if o.config.FeeCheckInterval <= 0 {
		return
	}
	if time.Since(o.lastFeeCheck) < o.config.FeeCheckInterval {
		return
	}
	o.lastFeeCheck = time.Now()

	params, ok := o.params.Get()
	if !ok || params.Paused || params.NextFeeTime == 0 || now < params.NextFeeTime {
		return
	}

	if err := o.submitter.SubmitFeeCollection(ctx); err != nil {
		log.Printf("Error submitting fee collection: %v", err)
		return
	}

	// Advance the local fee clock so we do not refire before the next
	// params refresh; the chain remains the source of truth.
	updated := *params
	updated.NextFeeTime = params.NextFeeTime + types.FeeCollectionInterval
	o.params.Set(&updated)
	log.Println("Submitted fee collection")
}

// submitPendingApprovals flushes the approval buffer to the submitter
func (o *ApprovalOperator) submitPendingApprovals(ctx context.Context) {
	ids := o.buffer.Flush()
	if len(ids) == 0 {
		return
	}

	if err := o.submitter.SubmitApprovals(ctx, ids); err != nil {
		log.Printf("Error submitting approvals: %v", err)
		// Return the batch to the buffer for retry
		o.buffer.AddBatch(ids)
		return
	}

	// Mark approved locally so the scan does not requeue them; the chain
	// rejects duplicate approvals regardless.
	for _, id := range ids {
		if request, ok := o.cache.Get(id); ok {
			marked := *request
			marked.Approved = true
			o.cache.Set(&marked)
		}
	}

	log.Printf("Submitted %d approvals", len(ids))
}

// SubmitRequest feeds a new withdrawal request into the operator
func (o *ApprovalOperator) SubmitRequest(request *types.WithdrawalRequest) error {
	if request == nil {
		return fmt.Errorf("request cannot be nil")
	}

	event := RequestEvent{
		Type:      EventTypeRequested,
		Request:   request,
		Timestamp: time.Now(),
	}

	select {
	case o.eventCh <- event:
		return nil
	default:
		return fmt.Errorf("event channel full")
	}
}

// CancelRequest feeds a cancellation into the operator
func (o *ApprovalOperator) CancelRequest(requestID uint64) error {
	event := RequestEvent{
		Type:      EventTypeCancelled,
		Request:   &types.WithdrawalRequest{ID: requestID},
		Timestamp: time.Now(),
	}

	select {
	case o.eventCh <- event:
		return nil
	default:
		return fmt.Errorf("event channel full")
	}
}

// NotifyApproved feeds an externally observed approval into the operator
func (o *ApprovalOperator) NotifyApproved(request *types.WithdrawalRequest) error {
	if request == nil {
		return fmt.Errorf("request cannot be nil")
	}

	event := RequestEvent{
		Type:      EventTypeApproved,
		Request:   request,
		Timestamp: time.Now(),
	}

	select {
	case o.eventCh <- event:
		return nil
	default:
		return fmt.Errorf("event channel full")
	}
}

// UpdateVaultParams feeds a vault parameter refresh into the operator
func (o *ApprovalOperator) UpdateVaultParams(params *VaultParams) error {
	if params == nil {
		return fmt.Errorf("params cannot be nil")
	}

	event := RequestEvent{
		Type:      EventTypeParamsUpdated,
		Params:    params,
		Timestamp: time.Now(),
	}

	select {
	case o.eventCh <- event:
		return nil
	default:
		return fmt.Errorf("event channel full")
	}
}

// GetRequest returns a tracked request by ID
func (o *ApprovalOperator) GetRequest(requestID uint64) (*types.WithdrawalRequest, bool) {
	return o.cache.Get(requestID)
}

// PendingRequests returns all tracked requests still awaiting approval
func (o *ApprovalOperator) PendingRequests() []*types.WithdrawalRequest {
	return o.cache.GetPending()
}

// NextMaturity returns the earliest scheduled eligibility time
func (o *ApprovalOperator) NextMaturity() (int64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	min := o.schedule.Min()
	if min == nil {
		return 0, false
	}
	return min.(*scheduleItem).availableAt, true
}

// Stats holds operator statistics
type Stats struct {
	TrackedRequests   int `json:"tracked_requests"`
	PendingRequests   int `json:"pending_requests"`
	ScheduledCount    int `json:"scheduled_count"`
	BufferedApprovals int `json:"buffered_approvals"`
}

// GetStats returns operator statistics
func (o *ApprovalOperator) GetStats() Stats {
	o.mu.RLock()
	scheduled := o.schedule.Len()
	o.mu.RUnlock()

	return Stats{
		TrackedRequests:   o.cache.Len(),
		PendingRequests:   len(o.cache.GetPending()),
		ScheduledCount:    scheduled,
		BufferedApprovals: o.buffer.Len(),
	}
}
