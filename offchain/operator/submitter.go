package operator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/openalpha/fundvault/pkg/grpcclient"
)

// ApprovalSubmitter delivers matured approvals and fee collections to the chain
type ApprovalSubmitter interface {
	// SubmitApprovals submits a batch of withdrawal approvals
	SubmitApprovals(ctx context.Context, requestIDs []uint64) error

	// SubmitFeeCollection triggers a fee settlement
	SubmitFeeCollection(ctx context.Context) error

	// GetStatus returns the current submitter status
	GetStatus() SubmitterStatus
}

// SubmitterStatus holds submitter health and counters
type SubmitterStatus struct {
	Connected         bool      `json:"connected"`
	PendingTxCount    int       `json:"pending_tx_count"`
	LastSubmitTime    time.Time `json:"last_submit_time"`
	LastError         string    `json:"last_error,omitempty"`
	TotalSubmissions  int64     `json:"total_submissions"`
	FailedSubmissions int64     `json:"failed_submissions"`
}

// MockSubmitter records submissions in memory for testing
type MockSubmitter struct {
	mu              sync.Mutex
	approvals       []uint64
	feeCollections  int
	simulateFailure bool
	status          SubmitterStatus
}

// NewMockSubmitter creates a new mock submitter
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		status: SubmitterStatus{Connected: true},
	}
}

// SubmitApprovals records the batch, or fails if failure simulation is on
func (m *MockSubmitter) SubmitApprovals(ctx context.Context, requestIDs []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateFailure {
		m.status.FailedSubmissions++
		m.status.LastError = "simulated failure"
		return fmt.Errorf("simulated submission failure")
	}

	m.approvals = append(m.approvals, requestIDs...)
	m.status.TotalSubmissions++
	m.status.LastSubmitTime = time.Now()
	m.status.LastError = ""

	log.Printf("[MockSubmitter] Submitted %d approvals", len(requestIDs))
	return nil
}

// SubmitFeeCollection records a fee collection, or fails if failure simulation is on
func (m *MockSubmitter) SubmitFeeCollection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.simulateFailure {
		m.status.FailedSubmissions++
		m.status.LastError = "simulated failure"
		return fmt.Errorf("simulated submission failure")
	}

	m.feeCollections++
	m.status.TotalSubmissions++
	m.status.LastSubmitTime = time.Now()
	m.status.LastError = ""

	log.Printf("[MockSubmitter] Submitted fee collection")
	return nil
}

// GetStatus returns the current submitter status
func (m *MockSubmitter) GetStatus() SubmitterStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

// GetSubmittedApprovals returns all recorded approval IDs
func (m *MockSubmitter) GetSubmittedApprovals() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, len(m.approvals))
	copy(ids, m.approvals)
	return ids
}

// GetFeeCollections returns the number of recorded fee collections
func (m *MockSubmitter) GetFeeCollections() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.feeCollections
}

// SetSimulateFailure toggles failure simulation
func (m *MockSubmitter) SetSimulateFailure(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.simulateFailure = fail
}

// Clear resets all recorded submissions
func (m *MockSubmitter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.approvals = nil
	m.feeCollections = 0
	m.status = SubmitterStatus{Connected: true}
}

// GRPCSubmitterConfig holds configuration for the gRPC submitter
type GRPCSubmitterConfig struct {
	Client        *grpcclient.Client
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

// GRPCSubmitter submits approvals through a signing gRPC client, splitting
// oversized batches and retrying transient failures
type GRPCSubmitter struct {
	client        *grpcclient.Client
	batchSize     int
	retryAttempts int
	retryDelay    time.Duration

	mu     sync.Mutex
	status SubmitterStatus
}

// NewGRPCSubmitter creates a submitter backed by the given client
func NewGRPCSubmitter(config *GRPCSubmitterConfig) *GRPCSubmitter {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	retryAttempts := config.RetryAttempts
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	retryDelay := config.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 1 * time.Second
	}

	return &GRPCSubmitter{
		client:        config.Client,
		batchSize:     batchSize,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		status:        SubmitterStatus{Connected: true},
	}
}

// SubmitApprovals submits approvals in batches of at most batchSize
func (g *GRPCSubmitter) SubmitApprovals(ctx context.Context, requestIDs []uint64) error {
	if len(requestIDs) == 0 {
		return nil
	}

	for i := 0; i < len(requestIDs); i += g.batchSize {
		end := i + g.batchSize
		if end > len(requestIDs) {
			end = len(requestIDs)
		}
		batch := requestIDs[i:end]

		if err := g.submitBatchWithRetry(ctx, batch); err != nil {
			g.recordFailure(err)
			return fmt.Errorf("failed to submit approval batch: %w", err)
		}
	}

	g.recordSuccess()
	return nil
}

// SubmitFeeCollection broadcasts a fee collection transaction
func (g *GRPCSubmitter) SubmitFeeCollection(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < g.retryAttempts; attempt++ {
		result := g.client.CollectFees(ctx)
		if result.Error == nil && result.Success {
			g.recordSuccess()
			return nil
		}
		lastErr = result.Error
		if lastErr == nil {
			lastErr = fmt.Errorf("fee collection tx rejected")
		}

		select {
		case <-ctx.Done():
			g.recordFailure(ctx.Err())
			return ctx.Err()
		case <-time.After(g.retryDelay):
		}
	}

	g.recordFailure(lastErr)
	return fmt.Errorf("fee collection failed after %d attempts: %w", g.retryAttempts, lastErr)
}

// submitBatchWithRetry broadcasts one batch, retrying on failure
func (g *GRPCSubmitter) submitBatchWithRetry(ctx context.Context, batch []uint64) error {
	var lastErr error
	for attempt := 0; attempt < g.retryAttempts; attempt++ {
		result := g.client.BatchApproveWithdrawals(ctx, batch)
		if result.Error == nil && result.Success {
			return nil
		}
		lastErr = result.Error
		if lastErr == nil {
			lastErr = fmt.Errorf("approval tx rejected")
		}
		log.Printf("Approval batch attempt %d/%d failed: %v", attempt+1, g.retryAttempts, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.retryDelay):
		}
	}
	return fmt.Errorf("batch failed after %d attempts: %w", g.retryAttempts, lastErr)
}

func (g *GRPCSubmitter) recordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status.TotalSubmissions++
	g.status.LastSubmitTime = time.Now()
	g.status.LastError = ""
}

func (g *GRPCSubmitter) recordFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.status.FailedSubmissions++
	if err != nil {
		g.status.LastError = err.Error()
	}
}

// GetStatus returns the current submitter status
func (g *GRPCSubmitter) GetStatus() SubmitterStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.status
}

// SubmitterFactory creates submitters by type name
type SubmitterFactory struct{}

// NewSubmitterFactory creates a new submitter factory
func NewSubmitterFactory() *SubmitterFactory {
	return &SubmitterFactory{}
}

// Create returns a submitter for the given type, defaulting to mock
func (f *SubmitterFactory) Create(submitterType string, config *GRPCSubmitterConfig) ApprovalSubmitter {
	switch submitterType {
	case "grpc":
		if config == nil || config.Client == nil {
			log.Println("No gRPC client configured, falling back to mock submitter")
			return NewMockSubmitter()
		}
		return NewGRPCSubmitter(config)
	case "mock":
		return NewMockSubmitter()
	default:
		log.Printf("Unknown submitter type %q, using mock", submitterType)
		return NewMockSubmitter()
	}
}
