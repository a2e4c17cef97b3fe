package api

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/api/types"
	vaulttypes "github.com/openalpha/fundvault/x/vault/types"
)

// MockVaultService implements types.VaultService with in-memory mock state.
// Share math goes through the real vault state helpers so mock quotes match
// what the chain would produce.
type MockVaultService struct {
	mu sync.RWMutex

	state   *vaulttypes.VaultState
	custody math.Int
	shares  math.Int
	locked  math.Int

	requests map[uint64]*vaulttypes.WithdrawalRequest
	userIDs  map[string][]uint64
	nextID   uint64

	history []*types.AUMPoint
}

// NewMockVaultService creates a new mock vault service
func NewMockVaultService() *MockVaultService {
	svc := &MockVaultService{
		requests: make(map[uint64]*vaulttypes.WithdrawalRequest),
		userIDs:  make(map[string][]uint64),
		history:  make([]*types.AUMPoint, 0),
	}
	svc.initMockData()
	return svc
}

func (s *MockVaultService) initMockData() {
	now := time.Now().Unix()

	// A vault a month into its life: price above par, one fee cycle behind
	s.state = vaulttypes.NewVaultState(SandboxOwner, SandboxManager, SandboxFeeCollector, now-86400*30)
	s.state.SharePrice = math.NewInt(1042000)
	s.state.HighWaterMark = math.NewInt(25500000000000)

	s.custody = math.NewInt(25000000000000)
	s.shares = math.NewIntWithDecimal(24, 24)
	s.locked = math.ZeroInt()

	// One pending and one approved request in the queue
	requester := "cosmos1depositor"
	pending := vaulttypes.NewWithdrawalRequest(0, requester,
		math.NewIntWithDecimal(5, 23), math.NewInt(521000000000), now-3600)
	approved := vaulttypes.NewWithdrawalRequest(1, requester,
		math.NewIntWithDecimal(1, 23), math.NewInt(104200000000), now-86400*2)
	approved.Approved = true

	s.requests[0] = pending
	s.requests[1] = approved
	s.userIDs[requester] = []uint64{0, 1}
	s.nextID = 2
	s.locked = pending.ShareAmount.Add(approved.ShareAmount)

	// 30 days of AUM history with a slight wobble
	baseAUM := 24000000000000.0
	for i := 0; i < 30; i++ {
		baseAUM += (float64(i%3) - 1) * 50000000000
		baseAUM += 35000000000
		s.history = append(s.history, &types.AUMPoint{
			Timestamp:  now - int64((29-i)*86400),
			AUM:        fmt.Sprintf("%.0f", baseAUM),
			SharePrice: s.state.SharePrice.String(),
		})
	}
}

// Implementation of types.VaultService interface

func (s *MockVaultService) GetVaultState() (*types.VaultStateInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &types.VaultStateInfo{
		Owner:             s.state.Owner,
		PendingOwner:      s.state.PendingOwner,
		Manager:           s.state.Manager,
		FeeCollector:      s.state.FeeCollector,
		SharePrice:        s.state.SharePrice.String(),
		HighWaterMark:     s.state.HighWaterMark.String(),
		ManagementFeeBps:  s.state.ManagementFeeBps,
		PerformanceFeeBps: s.state.PerformanceFeeBps,
		LastFeeCollection: s.state.LastFeeCollectionTime,
		WithdrawalDelay:   s.state.WithdrawalDelay,
		MinDeposit:        s.state.MinDeposit.String(),
		MaxSingleDeposit:  s.state.MaxSingleDeposit.String(),
		DepositsEnabled:   s.state.DepositsEnabled,
		Paused:            s.state.Paused,
	}, nil
}

func (s *MockVaultService) GetVaultStats() (*types.VaultStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pendingCount := 0
	pendingValue := math.ZeroInt()
	for _, request := range s.requests {
		if !request.Approved {
			pendingCount++
			pendingValue = pendingValue.Add(request.SettlementAmount)
		}
	}

	return &types.VaultStats{
		AUM:                 s.state.AUMForCustody(s.custody).String(),
		CustodyBalance:      s.custody.String(),
		TotalShares:         s.shares.String(),
		LockedShares:        s.locked.String(),
		SharePrice:          s.state.SharePrice.String(),
		HighWaterMark:       s.state.HighWaterMark.String(),
		PendingRequestCount: pendingCount,
		PendingRequestValue: pendingValue.String(),
		Paused:              s.state.Paused,
	}, nil
}

func (s *MockVaultService) GetAUMHistory(days int) ([]*types.AUMPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 || days > len(s.history) {
		days = len(s.history)
	}
	return s.history[len(s.history)-days:], nil
}

func (s *MockVaultService) GetFeePreview() (*types.FeePreviewInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().Unix()
	elapsed := now - s.state.LastFeeCollectionTime
	collectable := elapsed >= vaulttypes.FeeCollectionInterval

	managementFee := math.ZeroInt()
	performanceFee := math.ZeroInt()
	if collectable {
		aum := s.state.AUMForCustody(s.custody)
		managementFee = s.state.ManagementFee(aum, elapsed)
		performanceFee = s.state.PerformanceFee(aum)
	}

	return &types.FeePreviewInfo{
		ManagementFee:    managementFee.String(),
		PerformanceFee:   performanceFee.String(),
		TotalFee:         managementFee.Add(performanceFee).String(),
		Collectable:      collectable,
		NextCollectionAt: s.state.LastFeeCollectionTime + vaulttypes.FeeCollectionInterval,
	}, nil
}

func (s *MockVaultService) toRequestInfo(request *vaulttypes.WithdrawalRequest) *types.RequestInfo {
	return &types.RequestInfo{
		RequestID:        request.ID,
		Requester:        request.Requester,
		Shares:           request.ShareAmount.String(),
		SettlementAmount: request.SettlementAmount.String(),
		Status:           requestStatus(request),
		RequestedAt:      request.CreatedAt,
		AvailableAt:      request.CreatedAt + s.state.WithdrawalDelay,
	}
}

func (s *MockVaultService) GetWithdrawalRequest(requestID uint64) (*types.RequestInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("withdrawal request not found: %d", requestID)
	}
	return s.toRequestInfo(request), nil
}

func (s *MockVaultService) GetPendingRequests(offset, limit int) ([]*types.RequestInfo, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*vaulttypes.WithdrawalRequest, 0, len(s.requests))
	for _, request := range s.requests {
		if !request.Approved {
			pending = append(pending, request)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })

	total := len(pending)
	if offset >= total {
		return []*types.RequestInfo{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	infos := make([]*types.RequestInfo, 0, end-offset)
	for _, request := range pending[offset:end] {
		infos = append(infos, s.toRequestInfo(request))
	}
	return infos, total, nil
}

func (s *MockVaultService) GetUserRequests(user string) ([]*types.RequestInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]*types.RequestInfo, 0)
	for _, id := range s.userIDs[user] {
		if request, ok := s.requests[id]; ok {
			infos = append(infos, s.toRequestInfo(request))
		}
	}
	return infos, nil
}

func (s *MockVaultService) EstimateDeposit(amount math.Int) (*types.DepositEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive")
	}
	return &types.DepositEstimate{
		Amount:          amount.String(),
		EstimatedShares: s.state.SharesForDeposit(amount).String(),
		SharePrice:      s.state.SharePrice.String(),
		MinDeposit:      s.state.MinDeposit.String(),
		MaxDeposit:      s.state.MaxSingleDeposit.String(),
	}, nil
}

func (s *MockVaultService) EstimateWithdrawal(shares math.Int) (*types.WithdrawalEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !shares.IsPositive() {
		return nil, fmt.Errorf("share amount must be positive")
	}
	return &types.WithdrawalEstimate{
		Shares:          shares.String(),
		EstimatedAmount: s.state.SettlementForShares(shares).String(),
		SharePrice:      s.state.SharePrice.String(),
		AvailableAt:     time.Now().Unix() + s.state.WithdrawalDelay,
		DelaySeconds:    s.state.WithdrawalDelay,
	}, nil
}

func (s *MockVaultService) Deposit(user string, amount math.Int) (*types.DepositResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return nil, fmt.Errorf("vault is paused")
	}
	if !s.state.DepositsEnabled {
		return nil, fmt.Errorf("deposits are disabled")
	}
	if amount.LT(s.state.MinDeposit) {
		return nil, fmt.Errorf("deposit below minimum: %s < %s", amount, s.state.MinDeposit)
	}
	if amount.GT(s.state.MaxSingleDeposit) {
		return nil, fmt.Errorf("deposit above maximum: %s > %s", amount, s.state.MaxSingleDeposit)
	}

	shares := s.state.SharesForDeposit(amount)
	s.custody = s.custody.Add(amount)
	s.shares = s.shares.Add(shares)
	s.appendHistoryPoint()

	return &types.DepositResult{
		User:        user,
		Amount:      amount.String(),
		Shares:      shares.String(),
		SharePrice:  s.state.SharePrice.String(),
		DepositedAt: time.Now().Unix(),
	}, nil
}

func (s *MockVaultService) RequestWithdrawal(user string, shares math.Int) (*types.WithdrawalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return nil, fmt.Errorf("vault is paused")
	}
	if !shares.IsPositive() {
		return nil, fmt.Errorf("share amount must be positive")
	}

	now := time.Now().Unix()
	request := vaulttypes.NewWithdrawalRequest(s.nextID, user, shares, s.state.SettlementForShares(shares), now)
	s.requests[request.ID] = request
	s.userIDs[user] = append(s.userIDs[user], request.ID)
	s.nextID++
	s.locked = s.locked.Add(shares)

	return &types.WithdrawalResult{
		RequestID:        request.ID,
		User:             user,
		Shares:           shares.String(),
		SettlementAmount: request.SettlementAmount.String(),
		AvailableAt:      now + s.state.WithdrawalDelay,
	}, nil
}

func (s *MockVaultService) ApproveWithdrawal(manager string, requestID uint64) (*types.ApprovalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manager != s.state.Manager {
		return nil, fmt.Errorf("only the manager can approve withdrawals")
	}
	request, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("withdrawal request not found: %d", requestID)
	}
	if request.Approved {
		return nil, fmt.Errorf("request already approved: %d", requestID)
	}
	if time.Now().Unix() < request.CreatedAt+s.state.WithdrawalDelay {
		return nil, fmt.Errorf("withdrawal delay has not elapsed for request %d", requestID)
	}

	request.Approved = true
	s.locked = s.locked.Sub(request.ShareAmount)
	s.shares = s.shares.Sub(request.ShareAmount)

	return &types.ApprovalResult{
		RequestID:  requestID,
		Shares:     request.ShareAmount.String(),
		ApprovedAt: time.Now().Unix(),
	}, nil
}

func (s *MockVaultService) ProcessWithdrawal(user string, requestID uint64) (*types.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("withdrawal request not found: %d", requestID)
	}
	if request.Requester != user {
		return nil, fmt.Errorf("request %d belongs to a different user", requestID)
	}
	if !request.Approved {
		return nil, fmt.Errorf("request not yet approved: %d", requestID)
	}
	if request.Claimed {
		return nil, fmt.Errorf("request already claimed: %d", requestID)
	}
	if s.custody.LT(request.SettlementAmount) {
		return nil, fmt.Errorf("insufficient vault custody for request %d", requestID)
	}

	request.Claimed = true
	s.custody = s.custody.Sub(request.SettlementAmount)
	s.appendHistoryPoint()

	return &types.ClaimResult{
		RequestID: requestID,
		Amount:    request.SettlementAmount.String(),
		ClaimedAt: time.Now().Unix(),
	}, nil
}

func (s *MockVaultService) CancelWithdrawal(user string, requestID uint64) (*types.CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("withdrawal request not found: %d", requestID)
	}
	if request.Requester != user {
		return nil, fmt.Errorf("request %d belongs to a different user", requestID)
	}
	if request.Approved {
		return nil, fmt.Errorf("approved request cannot be cancelled: %d", requestID)
	}

	delete(s.requests, requestID)
	s.locked = s.locked.Sub(request.ShareAmount)

	return &types.CancelResult{
		RequestID:      requestID,
		SharesReturned: request.ShareAmount.String(),
		CancelledAt:    time.Now().Unix(),
	}, nil
}

func (s *MockVaultService) CollectFees(caller string) (*types.FeeCollectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	elapsed := now - s.state.LastFeeCollectionTime
	if elapsed < vaulttypes.FeeCollectionInterval {
		return &types.FeeCollectionResult{
			Collected:      false,
			ManagementFee:  "0",
			PerformanceFee: "0",
			CollectedAt:    now,
		}, nil
	}

	aum := s.state.AUMForCustody(s.custody)
	managementFee := s.state.ManagementFee(aum, elapsed)
	performanceFee := s.state.PerformanceFee(aum)
	feeInAsset := s.state.FeeInSettlement(managementFee.Add(performanceFee))
	if s.custody.LT(feeInAsset) {
		return nil, fmt.Errorf("insufficient vault custody to pay fees")
	}

	if aum.GT(s.state.HighWaterMark) {
		s.state.HighWaterMark = aum
	}
	s.state.LastFeeCollectionTime = now
	s.custody = s.custody.Sub(feeInAsset)
	s.appendHistoryPoint()

	return &types.FeeCollectionResult{
		Collected:      true,
		ManagementFee:  managementFee.String(),
		PerformanceFee: performanceFee.String(),
		CollectedAt:    now,
	}, nil
}

// appendHistoryPoint records the current AUM. Callers must hold mu.
func (s *MockVaultService) appendHistoryPoint() {
	s.history = append(s.history, &types.AUMPoint{
		Timestamp:  time.Now().Unix(),
		AUM:        s.state.AUMForCustody(s.custody).String(),
		SharePrice: s.state.SharePrice.String(),
	})
	if len(s.history) > maxHistoryPoints {
		s.history = s.history[len(s.history)-maxHistoryPoints:]
	}
}
