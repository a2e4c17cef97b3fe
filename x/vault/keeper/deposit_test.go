package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/fundvault/x/vault/types"
)

// TestShareConversionMath tests deposit and redemption conversions
func TestShareConversionMath(t *testing.T) {
	testCases := []struct {
		name           string
		sharePrice     math.Int
		amount         math.Int
		expectedShares math.Int
	}{
		{
			name:           "par price whole unit",
			sharePrice:     math.NewInt(1000000),
			amount:         math.NewInt(1000000),
			expectedShares: math.NewIntWithDecimal(1, 18),
		},
		{
			name:           "par price ten thousand units",
			sharePrice:     math.NewInt(1000000),
			amount:         math.NewIntWithDecimal(1, 10),
			expectedShares: math.NewIntWithDecimal(1, 22),
		},
		{
			name:           "price above par floors",
			sharePrice:     math.NewInt(3000000),
			amount:         math.NewInt(1000000),
			expectedShares: mustInt(t, "333333333333333333"),
		},
		{
			name:           "price below par",
			sharePrice:     math.NewInt(500000),
			amount:         math.NewInt(1000000),
			expectedShares: math.NewIntWithDecimal(2, 18),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := types.NewVaultState(ownerAddr, managerAddr, feeCollectorAddr, genesisTime)
			state.SharePrice = tc.sharePrice

			shares := state.SharesForDeposit(tc.amount)
			if !shares.Equal(tc.expectedShares) {
				t.Errorf("expected shares %s, got %s", tc.expectedShares, shares)
			}

			// Redemption floors too, so a round trip never gains value
			back := state.SettlementForShares(shares)
			if back.GT(tc.amount) {
				t.Errorf("round trip gained value: %s in, %s out", tc.amount, back)
			}
		})
	}
}

// TestDepositMintsSharesAtPar tests the full deposit happy path
func TestDepositMintsSharesAtPar(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)

	amount := math.NewIntWithDecimal(1, 10) // 10,000 settlement units
	bank.setBalance(depositorAddr, types.SettlementDenom, amount)

	shares, err := k.Deposit(ctx, depositorAddr, amount)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	expectedShares := math.NewIntWithDecimal(1, 22)
	if !shares.Equal(expectedShares) {
		t.Errorf("expected shares %s, got %s", expectedShares, shares)
	}
	if balance := bank.balanceOf(depositorAddr, types.ShareDenom); !balance.Equal(expectedShares) {
		t.Errorf("expected depositor share balance %s, got %s", expectedShares, balance)
	}
	if balance := bank.balanceOf(depositorAddr, types.SettlementDenom); !balance.IsZero() {
		t.Errorf("expected depositor settlement balance 0, got %s", balance)
	}
	if custody := k.GetCustodyBalance(ctx); !custody.Equal(amount) {
		t.Errorf("expected custody %s, got %s", amount, custody)
	}
	if minted := bank.mintedOf(types.ShareDenom); !minted.Equal(expectedShares) {
		t.Errorf("expected minted %s, got %s", expectedShares, minted)
	}
}

// TestDepositSizeLimits tests the min and max deposit boundaries
func TestDepositSizeLimits(t *testing.T) {
	testCases := []struct {
		name        string
		amount      math.Int
		expectedErr error
	}{
		{
			name:   "exactly minimum accepted",
			amount: types.DefaultMinDeposit,
		},
		{
			name:        "one below minimum rejected",
			amount:      types.DefaultMinDeposit.SubRaw(1),
			expectedErr: types.ErrDepositBelowMinimum,
		},
		{
			name:   "exactly maximum accepted",
			amount: types.DefaultMaxSingleDeposit,
		},
		{
			name:        "one above maximum rejected",
			amount:      types.DefaultMaxSingleDeposit.AddRaw(1),
			expectedErr: types.ErrDepositAboveMaximum,
		},
		{
			name:        "zero rejected",
			amount:      math.ZeroInt(),
			expectedErr: types.ErrInvalidAmount,
		},
		{
			name:        "negative rejected",
			amount:      math.NewInt(-1),
			expectedErr: types.ErrInvalidAmount,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, bank, ctx := setupKeeper(t)
			initVault(t, k, ctx)
			bank.setBalance(depositorAddr, types.SettlementDenom, types.DefaultMaxSingleDeposit.AddRaw(1))

			_, err := k.Deposit(ctx, depositorAddr, tc.amount)
			if tc.expectedErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("expected error %v, got %v", tc.expectedErr, err)
			}
		})
	}
}

// TestDepositGates tests admission gates ahead of any transfer
func TestDepositGates(t *testing.T) {
	amount := math.NewIntWithDecimal(1, 7)

	t.Run("uninitialized vault", func(t *testing.T) {
		k, bank, ctx := setupKeeper(t)
		bank.setBalance(depositorAddr, types.SettlementDenom, amount)

		if _, err := k.Deposit(ctx, depositorAddr, amount); !errors.Is(err, types.ErrVaultNotInitialized) {
			t.Errorf("expected ErrVaultNotInitialized, got %v", err)
		}
	})

	t.Run("paused vault", func(t *testing.T) {
		k, bank, ctx := setupKeeper(t)
		initVault(t, k, ctx)
		bank.setBalance(depositorAddr, types.SettlementDenom, amount)
		if err := k.SetPaused(ctx, ownerAddr, true); err != nil {
			t.Fatalf("pause failed: %v", err)
		}

		if _, err := k.Deposit(ctx, depositorAddr, amount); !errors.Is(err, types.ErrVaultPaused) {
			t.Errorf("expected ErrVaultPaused, got %v", err)
		}
	})

	t.Run("deposits disabled", func(t *testing.T) {
		k, bank, ctx := setupKeeper(t)
		initVault(t, k, ctx)
		bank.setBalance(depositorAddr, types.SettlementDenom, amount)
		if err := k.SetDepositsEnabled(ctx, ownerAddr, false); err != nil {
			t.Fatalf("disable failed: %v", err)
		}

		if _, err := k.Deposit(ctx, depositorAddr, amount); !errors.Is(err, types.ErrDepositsDisabled) {
			t.Errorf("expected ErrDepositsDisabled, got %v", err)
		}
	})

	t.Run("invalid depositor address", func(t *testing.T) {
		k, _, ctx := setupKeeper(t)
		initVault(t, k, ctx)

		if _, err := k.Deposit(ctx, "not-bech32", amount); !errors.Is(err, types.ErrInvalidAddress) {
			t.Errorf("expected ErrInvalidAddress, got %v", err)
		}
	})

	t.Run("insufficient depositor funds", func(t *testing.T) {
		k, bank, ctx := setupKeeper(t)
		initVault(t, k, ctx)
		bank.setBalance(depositorAddr, types.SettlementDenom, amount.SubRaw(1))

		if _, err := k.Deposit(ctx, depositorAddr, amount); err == nil {
			t.Fatal("expected transfer failure")
		}
		if custody := k.GetCustodyBalance(ctx); !custody.IsZero() {
			t.Errorf("expected custody 0 after failed deposit, got %s", custody)
		}
		if minted := bank.mintedOf(types.ShareDenom); !minted.IsZero() {
			t.Errorf("expected no shares minted after failed deposit, got %s", minted)
		}
	})
}

// TestDepositZeroSharesRejected tests the floor-to-zero guard
func TestDepositZeroSharesRejected(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)

	// At this price one whole settlement unit converts to less than one base
	// share unit
	if err := k.SetSharePrice(ctx, managerAddr, math.NewIntWithDecimal(1, 25)); err != nil {
		t.Fatalf("set price failed: %v", err)
	}

	amount := types.DefaultMinDeposit
	bank.setBalance(depositorAddr, types.SettlementDenom, amount)

	if _, err := k.Deposit(ctx, depositorAddr, amount); !errors.Is(err, types.ErrZeroShares) {
		t.Fatalf("expected ErrZeroShares, got %v", err)
	}
	if balance := bank.balanceOf(depositorAddr, types.SettlementDenom); !balance.Equal(amount) {
		t.Errorf("expected depositor balance untouched, got %s", balance)
	}
}

// TestDepositMintCeiling tests the single-mint share cap
func TestDepositMintCeiling(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)

	if err := k.SetDepositLimits(ctx, ownerAddr, types.DefaultMinDeposit, math.NewIntWithDecimal(1, 13)); err != nil {
		t.Fatalf("set limits failed: %v", err)
	}
	if err := k.SetSharePrice(ctx, managerAddr, math.OneInt()); err != nil {
		t.Fatalf("set price failed: %v", err)
	}
	bank.setBalance(depositorAddr, types.SettlementDenom, math.NewIntWithDecimal(1, 13))

	// Exactly the cap mints
	shares, err := k.Deposit(ctx, depositorAddr, math.NewIntWithDecimal(1, 12))
	if err != nil {
		t.Fatalf("deposit at cap failed: %v", err)
	}
	if !shares.Equal(types.MaxShareMint) {
		t.Errorf("expected shares %s, got %s", types.MaxShareMint, shares)
	}

	// Above the cap is rejected
	if _, err := k.Deposit(ctx, depositorAddr, math.NewIntWithDecimal(2, 12)); !errors.Is(err, types.ErrShareOverflow) {
		t.Errorf("expected ErrShareOverflow, got %v", err)
	}
}

// TestDepositStaleFeeClock tests forced fee settlement during deposit
func TestDepositStaleFeeClock(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	initVault(t, k, ctx)

	seed := math.NewIntWithDecimal(1, 12)
	bank.setBalance(depositorAddr, types.SettlementDenom, seed.AddRaw(2000000))

	if _, err := k.Deposit(ctx, depositorAddr, seed); err != nil {
		t.Fatalf("seed deposit failed: %v", err)
	}

	// Just under the staleness threshold nothing settles
	ctx89 := advanceTime(ctx, 89*24*60*60)
	if _, err := k.Deposit(ctx89, depositorAddr, math.NewInt(1000000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if balance := bank.balanceOf(feeCollectorAddr, types.SettlementDenom); !balance.IsZero() {
		t.Fatalf("expected no fees before staleness, got %s", balance)
	}
	if state := k.GetVaultState(ctx89); state.LastFeeCollectionTime != genesisTime {
		t.Fatalf("expected fee clock untouched, got %d", state.LastFeeCollectionTime)
	}

	// Past the threshold the deposit itself settles fees first
	ctx91 := advanceTime(ctx, 91*24*60*60)
	before := k.GetCustodyBalance(ctx91)
	if _, err := k.Deposit(ctx91, depositorAddr, math.NewInt(1000000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	feePaid := bank.balanceOf(feeCollectorAddr, types.SettlementDenom)
	if !feePaid.IsPositive() {
		t.Fatal("expected fees settled by stale deposit")
	}
	state := k.GetVaultState(ctx91)
	if state.LastFeeCollectionTime != ctx91.BlockTime().Unix() {
		t.Errorf("expected fee clock %d, got %d", ctx91.BlockTime().Unix(), state.LastFeeCollectionTime)
	}

	// Custody moved only by the new deposit and the fee payout
	custody := k.GetCustodyBalance(ctx91)
	expected := before.AddRaw(1000000).Sub(feePaid)
	if !custody.Equal(expected) {
		t.Errorf("expected custody %s, got %s", expected, custody)
	}
}

func mustInt(tb testing.TB, s string) math.Int {
	tb.Helper()
	value, ok := math.NewIntFromString(s)
	if !ok {
		tb.Fatalf("bad int literal %q", s)
	}
	return value
}
