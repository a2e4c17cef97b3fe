package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/fundvault/api/types"
	"github.com/openalpha/fundvault/metrics"
	"github.com/openalpha/fundvault/x/vault/keeper"
	vaulttypes "github.com/openalpha/fundvault/x/vault/types"
)

// Sandbox role addresses for the in-process vault. Clients drive manager
// operations by passing SandboxManager in the X-User-Address header.
var (
	SandboxOwner        = sdk.AccAddress("vault_owner_________").String()
	SandboxManager      = sdk.AccAddress("vault_manager_______").String()
	SandboxFeeCollector = sdk.AccAddress("vault_collector_____").String()
)

// maxHistoryPoints caps the in-memory AUM history ring
const maxHistoryPoints = 10000

// KeeperService implements VaultService by driving a real vault Keeper
// against an in-memory IAVL store. Deposits are faucet-backed: the sandbox
// has no external chain to source settlement funds from.
type KeeperService struct {
	keeper *keeper.Keeper
	query  *keeper.QueryServer
	bank   *sandboxBank
	ctx    sdk.Context
	mu     sync.RWMutex

	history []*types.AUMPoint
}

// sandboxBank is an in-memory bank backing the in-process keeper
type sandboxBank struct {
	balances map[string]map[string]math.Int
	supply   map[string]math.Int
}

func newSandboxBank() *sandboxBank {
	return &sandboxBank{
		balances: make(map[string]map[string]math.Int),
		supply:   make(map[string]math.Int),
	}
}

func (b *sandboxBank) balanceOf(addr, denom string) math.Int {
	if denoms, ok := b.balances[addr]; ok {
		if amount, ok := denoms[denom]; ok {
			return amount
		}
	}
	return math.ZeroInt()
}

func (b *sandboxBank) setBalance(addr, denom string, amount math.Int) {
	if _, ok := b.balances[addr]; !ok {
		b.balances[addr] = make(map[string]math.Int)
	}
	b.balances[addr][denom] = amount
}

// fund tops the address up to at least amount of denom
func (b *sandboxBank) fund(addr, denom string, amount math.Int) {
	if b.balanceOf(addr, denom).LT(amount) {
		b.setBalance(addr, denom, amount)
	}
}

func (b *sandboxBank) supplyOf(denom string) math.Int {
	if amount, ok := b.supply[denom]; ok {
		return amount
	}
	return math.ZeroInt()
}

func (b *sandboxBank) transfer(from, to string, amt sdk.Coins) error {
	for _, coin := range amt {
		fromBalance := b.balanceOf(from, coin.Denom)
		if fromBalance.LT(coin.Amount) {
			return fmt.Errorf("insufficient funds: %s has %s%s, need %s", from, fromBalance, coin.Denom, coin.Amount)
		}
		b.setBalance(from, coin.Denom, fromBalance.Sub(coin.Amount))
		b.setBalance(to, coin.Denom, b.balanceOf(to, coin.Denom).Add(coin.Amount))
	}
	return nil
}

func (b *sandboxBank) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return b.transfer(senderAddr.String(), authtypes.NewModuleAddress(recipientModule).String(), amt)
}

func (b *sandboxBank) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return b.transfer(authtypes.NewModuleAddress(senderModule).String(), recipientAddr.String(), amt)
}

func (b *sandboxBank) MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error {
	moduleAddr := authtypes.NewModuleAddress(moduleName).String()
	for _, coin := range amt {
		b.setBalance(moduleAddr, coin.Denom, b.balanceOf(moduleAddr, coin.Denom).Add(coin.Amount))
		b.supply[coin.Denom] = b.supplyOf(coin.Denom).Add(coin.Amount)
	}
	return nil
}

func (b *sandboxBank) BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error {
	moduleAddr := authtypes.NewModuleAddress(moduleName).String()
	for _, coin := range amt {
		balance := b.balanceOf(moduleAddr, coin.Denom)
		if balance.LT(coin.Amount) {
			return fmt.Errorf("insufficient funds to burn: %s has %s%s, need %s", moduleName, balance, coin.Denom, coin.Amount)
		}
		b.setBalance(moduleAddr, coin.Denom, balance.Sub(coin.Amount))
		b.supply[coin.Denom] = b.supplyOf(coin.Denom).Sub(coin.Amount)
	}
	return nil
}

func (b *sandboxBank) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, b.balanceOf(addr.String(), denom))
}

// NewKeeperService creates a KeeperService with an in-memory keeper and an
// initialized vault owned by the sandbox role addresses
func NewKeeperService() *KeeperService {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	storeKey := storetypes.NewKVStoreKey(vaulttypes.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), storemetrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		panic(fmt.Sprintf("failed to load store: %v", err))
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		Time:   time.Now(),
		Height: 1,
	}, false, log.NewNopLogger())

	bank := newSandboxBank()
	k := keeper.NewKeeper(cdc, storeKey, bank, SandboxOwner, log.NewNopLogger())

	state := vaulttypes.NewVaultState(SandboxOwner, SandboxManager, SandboxFeeCollector, time.Now().Unix())
	k.SetVaultState(ctx, state)

	s := &KeeperService{
		keeper:  k,
		query:   keeper.NewQueryServerImpl(k),
		bank:    bank,
		ctx:     ctx,
		history: make([]*types.AUMPoint, 0),
	}
	s.recordSnapshot(s.now())
	return s
}

// now stamps the service context with the wall clock so delay maturity and
// fee accrual track real time
func (s *KeeperService) now() sdk.Context {
	return s.ctx.WithBlockTime(time.Now())
}

// recordSnapshot appends the current AUM and price to the history ring and
// refreshes the vault gauges. Callers must hold mu.
func (s *KeeperService) recordSnapshot(ctx sdk.Context) {
	state := s.keeper.GetVaultState(ctx)
	if state == nil {
		return
	}
	custody := s.keeper.GetCustodyBalance(ctx)
	aum := state.AUMForCustody(custody)

	s.history = append(s.history, &types.AUMPoint{
		Timestamp:  ctx.BlockTime().Unix(),
		AUM:        aum.String(),
		SharePrice: state.SharePrice.String(),
	})
	if len(s.history) > maxHistoryPoints {
		s.history = s.history[len(s.history)-maxHistoryPoints:]
	}

	locked := s.keeper.GetLockedShares(ctx)
	metrics.GetCollector().UpdateVaultState(
		intToFloat(aum), intToFloat(custody), intToFloat(state.SharePrice),
		intToFloat(state.HighWaterMark), intToFloat(locked),
		state.Paused, state.DepositsEnabled,
	)

	pending := s.keeper.GetPendingRequests(ctx)
	pendingValue := math.ZeroInt()
	for _, request := range pending {
		pendingValue = pendingValue.Add(request.SettlementAmount)
	}
	metrics.GetCollector().UpdateWithdrawalQueue(len(pending), intToFloat(pendingValue))
}

// intToFloat converts a math.Int to float64 for gauge export. Precision loss
// is acceptable for monitoring.
func intToFloat(v math.Int) float64 {
	f, _ := math.LegacyNewDecFromInt(v).Float64()
	return f
}

// requestStatus maps the approval flags to the API status string
func requestStatus(request *vaulttypes.WithdrawalRequest) string {
	switch {
	case request.Claimed:
		return "claimed"
	case request.Approved:
		return "approved"
	default:
		return "pending"
	}
}

func (s *KeeperService) toRequestInfo(ctx sdk.Context, request *vaulttypes.WithdrawalRequest) *types.RequestInfo {
	availableAt := request.CreatedAt
	if state := s.keeper.GetVaultState(ctx); state != nil {
		availableAt = request.CreatedAt + state.WithdrawalDelay
	}
	return &types.RequestInfo{
		RequestID:        request.ID,
		Requester:        request.Requester,
		Shares:           request.ShareAmount.String(),
		SettlementAmount: request.SettlementAmount.String(),
		Status:           requestStatus(request),
		RequestedAt:      request.CreatedAt,
		AvailableAt:      availableAt,
	}
}

// ============================================================================
// Vault queries
// ============================================================================

func (s *KeeperService) GetVaultState() (*types.VaultStateInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	state, err := s.query.VaultState(ctx)
	if err != nil {
		return nil, err
	}
	return &types.VaultStateInfo{
		Owner:             state.Owner,
		PendingOwner:      state.PendingOwner,
		Manager:           state.Manager,
		FeeCollector:      state.FeeCollector,
		SharePrice:        state.SharePrice.String(),
		HighWaterMark:     state.HighWaterMark.String(),
		ManagementFeeBps:  state.ManagementFeeBps,
		PerformanceFeeBps: state.PerformanceFeeBps,
		LastFeeCollection: state.LastFeeCollectionTime,
		WithdrawalDelay:   state.WithdrawalDelay,
		MinDeposit:        state.MinDeposit.String(),
		MaxSingleDeposit:  state.MaxSingleDeposit.String(),
		DepositsEnabled:   state.DepositsEnabled,
		Paused:            state.Paused,
	}, nil
}

func (s *KeeperService) GetVaultStats() (*types.VaultStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	state, err := s.query.VaultState(ctx)
	if err != nil {
		return nil, err
	}
	aum, custody, sharePrice, err := s.query.AUM(ctx)
	if err != nil {
		return nil, err
	}

	pending := s.keeper.GetPendingRequests(ctx)
	pendingValue := math.ZeroInt()
	for _, request := range pending {
		pendingValue = pendingValue.Add(request.SettlementAmount)
	}

	return &types.VaultStats{
		AUM:                 aum.String(),
		CustodyBalance:      custody.String(),
		TotalShares:         s.bank.supplyOf(vaulttypes.ShareDenom).String(),
		LockedShares:        s.keeper.GetLockedShares(ctx).String(),
		SharePrice:          sharePrice.String(),
		HighWaterMark:       state.HighWaterMark.String(),
		PendingRequestCount: len(pending),
		PendingRequestValue: pendingValue.String(),
		Paused:              state.Paused,
	}, nil
}

func (s *KeeperService) GetAUMHistory(days int) ([]*types.AUMPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().Unix() - int64(days)*86400

	points := make([]*types.AUMPoint, 0, len(s.history))
	for _, point := range s.history {
		if point.Timestamp >= cutoff {
			points = append(points, point)
		}
	}
	return points, nil
}

func (s *KeeperService) GetFeePreview() (*types.FeePreviewInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	managementFee, performanceFee, collectable, err := s.query.FeePreview(ctx)
	if err != nil {
		return nil, err
	}

	nextCollectionAt := int64(0)
	if state := s.keeper.GetVaultState(ctx); state != nil {
		nextCollectionAt = state.LastFeeCollectionTime + vaulttypes.FeeCollectionInterval
	}

	return &types.FeePreviewInfo{
		ManagementFee:    managementFee.String(),
		PerformanceFee:   performanceFee.String(),
		TotalFee:         managementFee.Add(performanceFee).String(),
		Collectable:      collectable,
		NextCollectionAt: nextCollectionAt,
	}, nil
}

// ============================================================================
// Withdrawal request queries
// ============================================================================

func (s *KeeperService) GetWithdrawalRequest(requestID uint64) (*types.RequestInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	request, err := s.query.WithdrawalRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.toRequestInfo(ctx, request), nil
}

func (s *KeeperService) GetPendingRequests(offset, limit int) ([]*types.RequestInfo, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	page, total, err := s.query.PendingRequests(ctx, uint64(offset), uint64(limit))
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*types.RequestInfo, 0, len(page))
	for _, request := range page {
		infos = append(infos, s.toRequestInfo(ctx, request))
	}
	return infos, int(total), nil
}

func (s *KeeperService) GetUserRequests(user string) ([]*types.RequestInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	requests, _, err := s.query.UserRequests(ctx, user)
	if err != nil {
		return nil, err
	}

	infos := make([]*types.RequestInfo, 0, len(requests))
	for _, request := range requests {
		infos = append(infos, s.toRequestInfo(ctx, request))
	}
	return infos, nil
}

// ============================================================================
// Estimates
// ============================================================================

func (s *KeeperService) EstimateDeposit(amount math.Int) (*types.DepositEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	shares, sharePrice, err := s.query.EstimateDeposit(ctx, amount)
	if err != nil {
		return nil, err
	}

	state := s.keeper.GetVaultState(ctx)
	return &types.DepositEstimate{
		Amount:          amount.String(),
		EstimatedShares: shares.String(),
		SharePrice:      sharePrice.String(),
		MinDeposit:      state.MinDeposit.String(),
		MaxDeposit:      state.MaxSingleDeposit.String(),
	}, nil
}

func (s *KeeperService) EstimateWithdrawal(shares math.Int) (*types.WithdrawalEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := s.now()
	settlementAmount, availableAt, err := s.query.EstimateWithdrawal(ctx, shares)
	if err != nil {
		return nil, err
	}

	state := s.keeper.GetVaultState(ctx)
	return &types.WithdrawalEstimate{
		Shares:          shares.String(),
		EstimatedAmount: settlementAmount.String(),
		SharePrice:      state.SharePrice.String(),
		AvailableAt:     availableAt,
		DelaySeconds:    state.WithdrawalDelay,
	}, nil
}

// ============================================================================
// Transactions
// ============================================================================

func (s *KeeperService) Deposit(user string, amount math.Int) (*types.DepositResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()

	// Faucet-back the depositor so the sandbox accepts any funded amount
	if amount.IsPositive() {
		if _, err := sdk.AccAddressFromBech32(user); err == nil {
			s.bank.fund(user, vaulttypes.SettlementDenom, amount)
		}
	}

	shares, err := s.keeper.Deposit(ctx, user, amount)
	if err != nil {
		metrics.GetCollector().RecordDeposit("rejected", 0, 0)
		return nil, err
	}

	state := s.keeper.GetVaultState(ctx)
	metrics.GetCollector().RecordDeposit("accepted", intToFloat(amount), intToFloat(shares))
	s.recordSnapshot(ctx)

	return &types.DepositResult{
		User:        user,
		Amount:      amount.String(),
		Shares:      shares.String(),
		SharePrice:  state.SharePrice.String(),
		DepositedAt: ctx.BlockTime().Unix(),
	}, nil
}

func (s *KeeperService) RequestWithdrawal(user string, shares math.Int) (*types.WithdrawalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	request, err := s.keeper.RequestWithdrawal(ctx, user, shares)
	if err != nil {
		return nil, err
	}

	metrics.GetCollector().RecordWithdrawalPhase("requested")
	s.recordSnapshot(ctx)

	info := s.toRequestInfo(ctx, request)
	return &types.WithdrawalResult{
		RequestID:        request.ID,
		User:             request.Requester,
		Shares:           request.ShareAmount.String(),
		SettlementAmount: request.SettlementAmount.String(),
		AvailableAt:      info.AvailableAt,
	}, nil
}

func (s *KeeperService) ApproveWithdrawal(manager string, requestID uint64) (*types.ApprovalResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	request := s.keeper.GetWithdrawalRequest(ctx, requestID)
	if err := s.keeper.ApproveWithdrawal(ctx, manager, requestID); err != nil {
		return nil, err
	}

	metrics.GetCollector().RecordWithdrawalPhase("approved")
	metrics.GetCollector().RecordWithdrawalWait(float64(ctx.BlockTime().Unix() - request.CreatedAt))
	s.recordSnapshot(ctx)

	return &types.ApprovalResult{
		RequestID:  requestID,
		Shares:     request.ShareAmount.String(),
		ApprovedAt: ctx.BlockTime().Unix(),
	}, nil
}

func (s *KeeperService) ProcessWithdrawal(user string, requestID uint64) (*types.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	payout, err := s.keeper.ProcessWithdrawal(ctx, user, requestID)
	if err != nil {
		return nil, err
	}

	metrics.GetCollector().RecordWithdrawalPayout(intToFloat(payout))
	s.recordSnapshot(ctx)

	return &types.ClaimResult{
		RequestID: requestID,
		Amount:    payout.String(),
		ClaimedAt: ctx.BlockTime().Unix(),
	}, nil
}

func (s *KeeperService) CancelWithdrawal(user string, requestID uint64) (*types.CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	sharesReturned, err := s.keeper.CancelWithdrawal(ctx, user, requestID)
	if err != nil {
		return nil, err
	}

	metrics.GetCollector().RecordWithdrawalPhase("cancelled")
	s.recordSnapshot(ctx)

	return &types.CancelResult{
		RequestID:      requestID,
		SharesReturned: sharesReturned.String(),
		CancelledAt:    ctx.BlockTime().Unix(),
	}, nil
}

func (s *KeeperService) CollectFees(caller string) (*types.FeeCollectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	managementFee, performanceFee, collected, err := s.keeper.CollectFees(ctx)
	if err != nil {
		metrics.GetCollector().RecordFeeCollection("failed", 0, 0)
		return nil, err
	}

	outcome := "skipped"
	if collected {
		outcome = "collected"
	}
	metrics.GetCollector().RecordFeeCollection(outcome, intToFloat(managementFee), intToFloat(performanceFee))
	s.recordSnapshot(ctx)

	return &types.FeeCollectionResult{
		Collected:      collected,
		ManagementFee:  managementFee.String(),
		PerformanceFee: performanceFee.String(),
		CollectedAt:    ctx.BlockTime().Unix(),
	}, nil
}

// ============================================================================
// Helper Methods
// ============================================================================

// GetKeeper returns the underlying keeper for direct access in tests
func (s *KeeperService) GetKeeper() *keeper.Keeper {
	return s.keeper
}

// GetContext returns the SDK context
func (s *KeeperService) GetContext() sdk.Context {
	return s.ctx
}

// FundAccount credits an address in the sandbox bank, for tests and benchmarks
func (s *KeeperService) FundAccount(addr, denom string, amount math.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank.fund(addr, denom, amount)
}
