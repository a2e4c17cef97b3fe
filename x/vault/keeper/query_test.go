package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/x/vault/types"
)

// TestQueryUninitializedVault tests that reads fail cleanly before genesis
func TestQueryUninitializedVault(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	q := NewQueryServerImpl(k)

	if _, err := q.VaultState(ctx); !errors.Is(err, types.ErrVaultNotInitialized) {
		t.Errorf("expected ErrVaultNotInitialized from state, got %v", err)
	}
	if _, _, _, err := q.AUM(ctx); !errors.Is(err, types.ErrVaultNotInitialized) {
		t.Errorf("expected ErrVaultNotInitialized from aum, got %v", err)
	}
	if _, _, err := q.EstimateDeposit(ctx, math.NewInt(1000000)); !errors.Is(err, types.ErrVaultNotInitialized) {
		t.Errorf("expected ErrVaultNotInitialized from deposit estimate, got %v", err)
	}
	if _, _, err := q.EstimateWithdrawal(ctx, math.NewIntWithDecimal(1, 18)); !errors.Is(err, types.ErrVaultNotInitialized) {
		t.Errorf("expected ErrVaultNotInitialized from withdrawal estimate, got %v", err)
	}
}

// TestQueryAUM tests marked-up valuation of the custody balance
func TestQueryAUM(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(5, 8))
	if err := k.SetSharePrice(ctx, managerAddr, math.NewInt(2000000)); err != nil {
		t.Fatalf("set price failed: %v", err)
	}

	aum, custody, sharePrice, err := q.AUM(ctx)
	if err != nil {
		t.Fatalf("aum query failed: %v", err)
	}
	if !custody.Equal(math.NewIntWithDecimal(5, 8)) {
		t.Errorf("expected custody 5e8, got %s", custody)
	}
	if !sharePrice.Equal(math.NewInt(2000000)) {
		t.Errorf("expected price 2e6, got %s", sharePrice)
	}
	if !aum.Equal(math.NewIntWithDecimal(1, 9)) {
		t.Errorf("expected aum 1e9, got %s", aum)
	}
}

// TestQueryWithdrawalRequest tests request lookup by id
func TestQueryWithdrawalRequest(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	if _, err := q.WithdrawalRequest(ctx, 42); !errors.Is(err, types.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}

	shares := depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 9))
	created, err := k.RequestWithdrawal(ctx, depositorAddr, shares)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	request, err := q.WithdrawalRequest(ctx, created.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if request.Requester != depositorAddr {
		t.Errorf("expected requester %s, got %s", depositorAddr, request.Requester)
	}
	if !request.ShareAmount.Equal(shares) {
		t.Errorf("expected shares %s, got %s", shares, request.ShareAmount)
	}
}

// TestQueryUserRequests tests that id history outlives cancelled requests
func TestQueryUserRequests(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(3, 9))
	chunk := math.NewIntWithDecimal(1, 21)
	for i := 0; i < 3; i++ {
		if _, err := k.RequestWithdrawal(ctx, depositorAddr, chunk); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if _, err := k.CancelWithdrawal(ctx, depositorAddr, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	requests, ids, err := q.UserRequests(ctx, depositorAddr)
	if err != nil {
		t.Fatalf("user query failed: %v", err)
	}
	if len(requests) != 2 {
		t.Errorf("expected 2 surviving requests, got %d", len(requests))
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 historical ids, got %d", len(ids))
	}

	// A user with no history gets empty results, not an error
	requests, ids, err = q.UserRequests(ctx, strangerAddr)
	if err != nil {
		t.Fatalf("empty user query failed: %v", err)
	}
	if len(requests) != 0 || len(ids) != 0 {
		t.Errorf("expected empty results, got %d requests %d ids", len(requests), len(ids))
	}
}

// TestQueryPendingPagination tests offset and limit windows over pending requests
func TestQueryPendingPagination(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(5, 9))
	chunk := math.NewIntWithDecimal(1, 21)
	for i := 0; i < 5; i++ {
		if _, err := k.RequestWithdrawal(ctx, depositorAddr, chunk); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	cases := []struct {
		name    string
		offset  uint64
		limit   uint64
		wantIDs []uint64
	}{
		{"first page", 0, 2, []uint64{0, 1}},
		{"middle page", 2, 2, []uint64{2, 3}},
		{"trailing partial page", 4, 10, []uint64{4}},
		{"offset at total", 5, 2, []uint64{}},
		{"offset beyond total", 9, 2, []uint64{}},
		{"zero limit returns all", 0, 0, []uint64{0, 1, 2, 3, 4}},
		{"zero limit with offset", 2, 0, []uint64{2, 3, 4}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, total, err := q.PendingRequests(ctx, tc.offset, tc.limit)
			if err != nil {
				t.Fatalf("pending query failed: %v", err)
			}
			if total != 5 {
				t.Errorf("expected total 5, got %d", total)
			}
			if len(page) != len(tc.wantIDs) {
				t.Fatalf("expected %d requests, got %d", len(tc.wantIDs), len(page))
			}
			for i, want := range tc.wantIDs {
				if page[i].ID != want {
					t.Errorf("position %d: expected id %d, got %d", i, want, page[i].ID)
				}
			}
		})
	}
}

// TestQueryEstimates tests deposit and withdrawal previews
func TestQueryEstimates(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	if _, _, err := q.EstimateDeposit(ctx, math.ZeroInt()); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero deposit, got %v", err)
	}
	if _, _, err := q.EstimateWithdrawal(ctx, math.NewInt(-1)); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative shares, got %v", err)
	}

	shares, sharePrice, err := q.EstimateDeposit(ctx, math.NewInt(1000000))
	if err != nil {
		t.Fatalf("deposit estimate failed: %v", err)
	}
	if !shares.Equal(math.NewIntWithDecimal(1, 18)) {
		t.Errorf("expected 1e18 shares at par, got %s", shares)
	}
	if !sharePrice.Equal(types.DefaultSharePrice) {
		t.Errorf("expected par price, got %s", sharePrice)
	}

	settlement, availableAt, err := q.EstimateWithdrawal(ctx, math.NewIntWithDecimal(1, 18))
	if err != nil {
		t.Fatalf("withdrawal estimate failed: %v", err)
	}
	if !settlement.Equal(math.NewInt(1000000)) {
		t.Errorf("expected 1e6 settlement at par, got %s", settlement)
	}
	if want := genesisTime + types.DefaultWithdrawalDelay; availableAt != want {
		t.Errorf("expected available at %d, got %d", want, availableAt)
	}

	// Estimates track the administered price
	if err := k.SetSharePrice(ctx, managerAddr, math.NewInt(2000000)); err != nil {
		t.Fatalf("set price failed: %v", err)
	}
	shares, _, err = q.EstimateDeposit(ctx, math.NewInt(1000000))
	if err != nil {
		t.Fatalf("deposit estimate failed: %v", err)
	}
	if !shares.Equal(math.NewIntWithDecimal(5, 17)) {
		t.Errorf("expected 5e17 shares at doubled price, got %s", shares)
	}
}

// TestQueryFeePreviewPassthrough tests the read-only fee projection surface
func TestQueryFeePreviewPassthrough(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 12))

	managementFee, performanceFee, collectable, err := q.FeePreview(ctx)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if collectable {
		t.Error("expected fees not collectable inside the 30-day window")
	}
	if !managementFee.IsZero() || !performanceFee.IsZero() {
		t.Errorf("expected zero fees inside window, got %s/%s", managementFee, performanceFee)
	}

	year := advanceTime(ctx, types.SecondsPerYear)
	managementFee, performanceFee, collectable, err = q.FeePreview(year)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !collectable {
		t.Error("expected fees collectable after a year")
	}
	if !managementFee.IsPositive() || !performanceFee.IsPositive() {
		t.Errorf("expected positive fees, got %s/%s", managementFee, performanceFee)
	}
}

// TestQueryShareConservation tests the escrow consistency report
func TestQueryShareConservation(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)
	q := NewQueryServerImpl(k)

	shares := depositShares(t, k, bank, ctx, depositorAddr, math.NewIntWithDecimal(1, 9))
	if _, err := k.RequestWithdrawal(ctx, depositorAddr, shares); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	lockedShares, moduleBalance, ok, err := q.ShareConservation(ctx)
	if err != nil {
		t.Fatalf("conservation query failed: %v", err)
	}
	if !ok {
		t.Error("expected escrow to balance")
	}
	if !lockedShares.Equal(shares) || !moduleBalance.Equal(shares) {
		t.Errorf("expected both sides %s, got %s/%s", shares, lockedShares, moduleBalance)
	}
}
