package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/x/vault/types"
)

// TestManagementFeeFormula tests pro-rata management fee accrual
func TestManagementFeeFormula(t *testing.T) {
	testCases := []struct {
		name        string
		aum         math.Int
		bps         int64
		elapsed     int64
		expectedFee math.Int
	}{
		{
			name:        "2 percent over a full year",
			aum:         math.NewIntWithDecimal(1, 12),
			bps:         200,
			elapsed:     types.SecondsPerYear,
			expectedFee: math.NewIntWithDecimal(2, 10),
		},
		{
			name:        "2 percent over half a year",
			aum:         math.NewIntWithDecimal(1, 12),
			bps:         200,
			elapsed:     types.SecondsPerYear / 2,
			expectedFee: math.NewIntWithDecimal(1, 10),
		},
		{
			name:        "zero aum accrues nothing",
			aum:         math.ZeroInt(),
			bps:         200,
			elapsed:     types.SecondsPerYear,
			expectedFee: math.ZeroInt(),
		},
		{
			name:        "zero elapsed accrues nothing",
			aum:         math.NewIntWithDecimal(1, 12),
			bps:         200,
			elapsed:     0,
			expectedFee: math.ZeroInt(),
		},
		{
			name:        "tiny accrual floors to zero",
			aum:         math.NewInt(1000000),
			bps:         200,
			elapsed:     1,
			expectedFee: math.ZeroInt(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := types.NewVaultState(ownerAddr, managerAddr, feeCollectorAddr, genesisTime)
			state.ManagementFeeBps = tc.bps

			fee := state.ManagementFee(tc.aum, tc.elapsed)
			if !fee.Equal(tc.expectedFee) {
				t.Errorf("expected fee %s, got %s", tc.expectedFee, fee)
			}
		})
	}
}

// TestPerformanceFeeFormula tests high-water mark gating
func TestPerformanceFeeFormula(t *testing.T) {
	testCases := []struct {
		name          string
		highWaterMark math.Int
		aum           math.Int
		expectedFee   math.Int
	}{
		{
			name:          "20 percent of excess",
			highWaterMark: math.NewIntWithDecimal(5, 11),
			aum:           math.NewIntWithDecimal(1, 12),
			expectedFee:   math.NewIntWithDecimal(1, 11),
		},
		{
			name:          "aum below mark charges nothing",
			highWaterMark: math.NewIntWithDecimal(1, 12),
			aum:           math.NewIntWithDecimal(9, 11),
			expectedFee:   math.ZeroInt(),
		},
		{
			name:          "aum exactly at mark charges nothing",
			highWaterMark: math.NewIntWithDecimal(1, 12),
			aum:           math.NewIntWithDecimal(1, 12),
			expectedFee:   math.ZeroInt(),
		},
		{
			name:          "fresh vault charges on full aum",
			highWaterMark: math.ZeroInt(),
			aum:           math.NewIntWithDecimal(1, 12),
			expectedFee:   math.NewIntWithDecimal(2, 11),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := types.NewVaultState(ownerAddr, managerAddr, feeCollectorAddr, genesisTime)
			state.HighWaterMark = tc.highWaterMark

			fee := state.PerformanceFee(tc.aum)
			if !fee.Equal(tc.expectedFee) {
				t.Errorf("expected fee %s, got %s", tc.expectedFee, fee)
			}
		})
	}
}

// TestCollectFeesIntervalGate tests the 30-day no-op window
func TestCollectFeesIntervalGate(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	// Inside the window both calls are silent no-ops
	for _, elapsed := range []int64{0, 29 * 24 * 60 * 60} {
		managementFee, performanceFee, collected, err := k.CollectFees(advanceTime(ctx, elapsed))
		if err != nil {
			t.Fatalf("collect at +%ds errored: %v", elapsed, err)
		}
		if collected {
			t.Errorf("expected no collection at +%ds", elapsed)
		}
		if !managementFee.IsZero() || !performanceFee.IsZero() {
			t.Errorf("expected zero fees inside window, got %s / %s", managementFee, performanceFee)
		}
	}
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.IsZero() {
		t.Errorf("expected collector empty, got %s", balance)
	}
	if state := k.GetVaultState(ctx); state.LastFeeCollectionTime != genesisTime {
		t.Errorf("expected fee clock untouched, got %d", state.LastFeeCollectionTime)
	}

	// Exactly 30 days later the gate opens
	mature := advanceTime(ctx, types.FeeCollectionInterval)
	if _, _, collected, err := k.CollectFees(mature); err != nil || !collected {
		t.Fatalf("expected collection at the interval boundary, collected=%v err=%v", collected, err)
	}
	if state := k.GetVaultState(mature); state.LastFeeCollectionTime != mature.BlockTime().Unix() {
		t.Errorf("expected fee clock %d, got %d", mature.BlockTime().Unix(), state.LastFeeCollectionTime)
	}
}

// TestManagementFeeCollection tests a pure management fee cycle
func TestManagementFeeCollection(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	if err := k.SetFeeRates(ctx, ownerAddr, 200, 0); err != nil {
		t.Fatalf("set rates failed: %v", err)
	}
	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	year := advanceTime(ctx, types.SecondsPerYear)
	managementFee, performanceFee, collected, err := k.CollectFees(year)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if !collected {
		t.Fatal("expected collection after a year")
	}

	expectedFee := math.NewIntWithDecimal(2, 10) // 2% of 10^12
	if !managementFee.Equal(expectedFee) {
		t.Errorf("expected management fee %s, got %s", expectedFee, managementFee)
	}
	if !performanceFee.IsZero() {
		t.Errorf("expected zero performance fee, got %s", performanceFee)
	}
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.Equal(expectedFee) {
		t.Errorf("expected collector balance %s, got %s", expectedFee, balance)
	}
	if custody := k.GetCustodyBalance(year); !custody.Equal(math.NewIntWithDecimal(1, 12).Sub(expectedFee)) {
		t.Errorf("unexpected custody after fees: %s", custody)
	}

	state := k.GetVaultState(year)
	if !state.HighWaterMark.Equal(math.NewIntWithDecimal(1, 12)) {
		t.Errorf("expected high-water mark 10^12, got %s", state.HighWaterMark)
	}
}

// TestPerformanceFeeCycles tests the high-water mark ratchet across cycles
func TestPerformanceFeeCycles(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	if err := k.SetFeeRates(ctx, ownerAddr, 0, 2000); err != nil {
		t.Fatalf("set rates failed: %v", err)
	}
	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	// Cycle 1: fresh mark, 20% of full AUM
	cycle1 := advanceTime(ctx, types.FeeCollectionInterval)
	_, performanceFee, collected, err := k.CollectFees(cycle1)
	if err != nil || !collected {
		t.Fatalf("cycle 1 failed: collected=%v err=%v", collected, err)
	}
	if !performanceFee.Equal(math.NewIntWithDecimal(2, 11)) {
		t.Errorf("expected cycle 1 fee 2*10^11, got %s", performanceFee)
	}
	state := k.GetVaultState(cycle1)
	if !state.HighWaterMark.Equal(math.NewIntWithDecimal(1, 12)) {
		t.Errorf("expected mark 10^12, got %s", state.HighWaterMark)
	}

	// Cycle 2: AUM fell below the mark, nothing charged, mark holds
	cycle2 := advanceTime(cycle1, types.FeeCollectionInterval)
	_, performanceFee, collected, err = k.CollectFees(cycle2)
	if err != nil || !collected {
		t.Fatalf("cycle 2 failed: collected=%v err=%v", collected, err)
	}
	if !performanceFee.IsZero() {
		t.Errorf("expected no fee below the mark, got %s", performanceFee)
	}
	state = k.GetVaultState(cycle2)
	if !state.HighWaterMark.Equal(math.NewIntWithDecimal(1, 12)) {
		t.Errorf("expected mark to hold at 10^12, got %s", state.HighWaterMark)
	}

	// Cycle 3: price doubles, fee charged only on the excess over the mark
	if err := k.SetSharePrice(cycle2, managerAddr, math.NewInt(2000000)); err != nil {
		t.Fatalf("set price failed: %v", err)
	}
	cycle3 := advanceTime(cycle2, types.FeeCollectionInterval)
	_, performanceFee, collected, err = k.CollectFees(cycle3)
	if err != nil || !collected {
		t.Fatalf("cycle 3 failed: collected=%v err=%v", collected, err)
	}
	// custody 8*10^11 at price 2.0 values to 1.6*10^12; excess 6*10^11 at 20%
	if !performanceFee.Equal(math.NewIntWithDecimal(12, 10)) {
		t.Errorf("expected cycle 3 fee 1.2*10^11, got %s", performanceFee)
	}
	// Fee converts back through the doubled price before payment
	expectedCollector := math.NewIntWithDecimal(2, 11).Add(math.NewIntWithDecimal(6, 10))
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.Equal(expectedCollector) {
		t.Errorf("expected collector balance %s, got %s", expectedCollector, balance)
	}
	state = k.GetVaultState(cycle3)
	if !state.HighWaterMark.Equal(math.NewIntWithDecimal(16, 11)) {
		t.Errorf("expected mark 1.6*10^12, got %s", state.HighWaterMark)
	}
}

// TestZeroRateCollectionAdvancesClock tests the zero-fee cycle semantics
func TestZeroRateCollectionAdvancesClock(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	if err := k.SetFeeRates(ctx, ownerAddr, 0, 0); err != nil {
		t.Fatalf("set rates failed: %v", err)
	}
	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	mature := advanceTime(ctx, types.FeeCollectionInterval)
	managementFee, performanceFee, collected, err := k.CollectFees(mature)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if !collected {
		t.Fatal("expected the cycle to run even with zero rates")
	}
	if !managementFee.IsZero() || !performanceFee.IsZero() {
		t.Errorf("expected zero fees, got %s / %s", managementFee, performanceFee)
	}
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.IsZero() {
		t.Errorf("expected nothing paid, got %s", balance)
	}

	state := k.GetVaultState(mature)
	if state.LastFeeCollectionTime != mature.BlockTime().Unix() {
		t.Errorf("expected clock advance to %d, got %d", mature.BlockTime().Unix(), state.LastFeeCollectionTime)
	}
	if !state.HighWaterMark.Equal(math.NewIntWithDecimal(1, 12)) {
		t.Errorf("expected mark ratchet to 10^12, got %s", state.HighWaterMark)
	}
}

// TestFeeShortfallAbortsCollection tests that a failed payment leaves the
// clock untouched
func TestFeeShortfallAbortsCollection(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	if err := k.SetFeeRates(ctx, ownerAddr, 500, 0); err != nil {
		t.Fatalf("set rates failed: %v", err)
	}
	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	// Backdate the clock far enough that the accrued fee exceeds custody
	state := k.GetVaultState(ctx)
	staleClock := ctx.BlockTime().Unix() - 21*types.SecondsPerYear
	state.LastFeeCollectionTime = staleClock
	k.SetVaultState(ctx, state)

	_, _, collected, err := k.CollectFees(ctx)
	if !errors.Is(err, types.ErrInsufficientCustody) {
		t.Fatalf("expected ErrInsufficientCustody, got %v", err)
	}
	if collected {
		t.Error("expected no collection on shortfall")
	}

	after := k.GetVaultState(ctx)
	if after.LastFeeCollectionTime != staleClock {
		t.Errorf("expected clock unchanged at %d, got %d", staleClock, after.LastFeeCollectionTime)
	}
	if !after.HighWaterMark.IsZero() {
		t.Errorf("expected mark unchanged, got %s", after.HighWaterMark)
	}
	if custody := k.GetCustodyBalance(ctx); !custody.Equal(math.NewIntWithDecimal(1, 12)) {
		t.Errorf("expected custody unchanged, got %s", custody)
	}
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.IsZero() {
		t.Errorf("expected collector empty, got %s", balance)
	}
}

// TestPreviewFeesReadOnly tests that previews match collection without mutating
func TestPreviewFeesReadOnly(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	// Inside the window the preview reports not collectable
	if _, _, collectable, err := k.PreviewFees(ctx); err != nil || collectable {
		t.Fatalf("expected no preview inside window, collectable=%v err=%v", collectable, err)
	}

	year := advanceTime(ctx, types.SecondsPerYear)
	previewManagement, previewPerformance, collectable, err := k.PreviewFees(year)
	if err != nil || !collectable {
		t.Fatalf("preview failed: collectable=%v err=%v", collectable, err)
	}

	// Preview left no trace
	if state := k.GetVaultState(year); state.LastFeeCollectionTime != genesisTime {
		t.Fatalf("preview mutated the fee clock: %d", state.LastFeeCollectionTime)
	}
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.IsZero() {
		t.Fatalf("preview paid fees: %s", balance)
	}

	managementFee, performanceFee, collected, err := k.CollectFees(year)
	if err != nil || !collected {
		t.Fatalf("collect failed: collected=%v err=%v", collected, err)
	}
	if !managementFee.Equal(previewManagement) {
		t.Errorf("management fee mismatch: preview %s, collected %s", previewManagement, managementFee)
	}
	if !performanceFee.Equal(previewPerformance) {
		t.Errorf("performance fee mismatch: preview %s, collected %s", previewPerformance, performanceFee)
	}
}

// TestGetAUM tests custody valuation at the administered price
func TestGetAUM(t *testing.T) {
	k, bank, ctx := setupKeeper(t)

	if _, err := k.GetAUM(ctx); !errors.Is(err, types.ErrVaultNotInitialized) {
		t.Fatalf("expected ErrVaultNotInitialized, got %v", err)
	}

	initVault(t, k, ctx)
	if err := k.SetSharePrice(ctx, managerAddr, math.NewInt(2000000)); err != nil {
		t.Fatalf("set price failed: %v", err)
	}
	bank.setBalance(moduleAddrStr, types.SettlementDenom, math.NewIntWithDecimal(5, 8))

	aum, err := k.GetAUM(ctx)
	if err != nil {
		t.Fatalf("aum failed: %v", err)
	}
	if !aum.Equal(math.NewIntWithDecimal(1, 9)) {
		t.Errorf("expected aum 10^9, got %s", aum)
	}
}
