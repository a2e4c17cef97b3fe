package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// Store key prefixes
var (
	VaultStateKey         = []byte{0x01}
	WithdrawalKeyPrefix   = []byte{0x02}
	UserRequestsKeyPrefix = []byte{0x03}
	NextRequestIDKey      = []byte{0x04}
)

// BankKeeper defines the expected bank keeper interface
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// Keeper of the vault store
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string
	moduleAddr sdk.AccAddress

	// opLock serializes mutating operations. Message execution is already
	// sequential within a block, but the keeper is also driven directly by
	// the HTTP gateway's in-process service, where handlers run concurrently.
	opLock sync.Mutex
}

// NewKeeper creates a new vault Keeper instance
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		logger:     logger.With("module", "x/vault"),
		authority:  authority,
		moduleAddr: authtypes.NewModuleAddress(types.ModuleName),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the module's authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// GetModuleAddress returns the vault module account address
func (k *Keeper) GetModuleAddress() sdk.AccAddress {
	return k.moduleAddr
}

// GetStore returns the module KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// SetVaultState persists the singleton vault state
func (k *Keeper) SetVaultState(ctx sdk.Context, state *types.VaultState) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(state)
	store.Set(VaultStateKey, bz)
}

// GetVaultState returns the vault state, or nil when uninitialized
func (k *Keeper) GetVaultState(ctx sdk.Context) *types.VaultState {
	store := k.GetStore(ctx)
	bz := store.Get(VaultStateKey)
	if bz == nil {
		return nil
	}
	var state types.VaultState
	if err := json.Unmarshal(bz, &state); err != nil {
		return nil
	}
	return &state
}

// withdrawalKey builds the store key for a request id. Big-endian encoding
// keeps prefix iteration in id order.
func withdrawalKey(id uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	return append(WithdrawalKeyPrefix, bz...)
}

// SetWithdrawalRequest saves a withdrawal request to the store
func (k *Keeper) SetWithdrawalRequest(ctx sdk.Context, request *types.WithdrawalRequest) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(request)
	store.Set(withdrawalKey(request.ID), bz)
}

// GetWithdrawalRequest returns a request by id, or nil when the id was never
// issued or the entry was erased by cancellation
func (k *Keeper) GetWithdrawalRequest(ctx sdk.Context, id uint64) *types.WithdrawalRequest {
	store := k.GetStore(ctx)
	bz := store.Get(withdrawalKey(id))
	if bz == nil {
		return nil
	}
	var request types.WithdrawalRequest
	if err := json.Unmarshal(bz, &request); err != nil {
		return nil
	}
	return &request
}

// DeleteWithdrawalRequest erases a request entry entirely
func (k *Keeper) DeleteWithdrawalRequest(ctx sdk.Context, id uint64) {
	store := k.GetStore(ctx)
	store.Delete(withdrawalKey(id))
}

// GetAllWithdrawalRequests returns every live request in id order
func (k *Keeper) GetAllWithdrawalRequests(ctx sdk.Context) []*types.WithdrawalRequest {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, WithdrawalKeyPrefix)
	defer iterator.Close()

	var requests []*types.WithdrawalRequest
	for ; iterator.Valid(); iterator.Next() {
		var request types.WithdrawalRequest
		if err := json.Unmarshal(iterator.Value(), &request); err != nil {
			continue
		}
		requests = append(requests, &request)
	}
	return requests
}

// userRequestsKey builds the store key for a user's request id history
func userRequestsKey(addr string) []byte {
	return append(UserRequestsKeyPrefix, []byte(addr)...)
}

// AppendUserRequestID records a new id in the user's append-only history
func (k *Keeper) AppendUserRequestID(ctx sdk.Context, addr string, id uint64) {
	ids := k.GetUserRequestIDs(ctx, addr)
	ids = append(ids, id)
	k.setUserRequestIDs(ctx, addr, ids)
}

// GetUserRequestIDs returns the user's full id history, including ids whose
// requests were later erased by cancellation
func (k *Keeper) GetUserRequestIDs(ctx sdk.Context, addr string) []uint64 {
	store := k.GetStore(ctx)
	bz := store.Get(userRequestsKey(addr))
	if bz == nil {
		return []uint64{}
	}
	var ids []uint64
	if err := json.Unmarshal(bz, &ids); err != nil {
		return []uint64{}
	}
	return ids
}

func (k *Keeper) setUserRequestIDs(ctx sdk.Context, addr string, ids []uint64) {
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(ids)
	store.Set(userRequestsKey(addr), bz)
}

// GetAllUserRequestLists returns every user's id history, for genesis export
func (k *Keeper) GetAllUserRequestLists(ctx sdk.Context) []types.UserRequestList {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, UserRequestsKeyPrefix)
	defer iterator.Close()

	var lists []types.UserRequestList
	for ; iterator.Valid(); iterator.Next() {
		addr := string(iterator.Key()[len(UserRequestsKeyPrefix):])
		var ids []uint64
		if err := json.Unmarshal(iterator.Value(), &ids); err != nil {
			continue
		}
		lists = append(lists, types.UserRequestList{Address: addr, RequestIDs: ids})
	}
	return lists
}

// allocateRequestID returns the next request id and advances the counter.
// Ids are sequential from zero and never reused, even across cancellations.
func (k *Keeper) allocateRequestID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	var id uint64
	if bz := store.Get(NextRequestIDKey); bz != nil {
		id = binary.BigEndian.Uint64(bz)
	}
	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, id+1)
	store.Set(NextRequestIDKey, next)
	return id
}

// GetNextRequestID returns the id the next withdrawal request will take
func (k *Keeper) GetNextRequestID(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	bz := store.Get(NextRequestIDKey)
	if bz == nil {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

func (k *Keeper) setNextRequestID(ctx sdk.Context, id uint64) {
	store := k.GetStore(ctx)
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, id)
	store.Set(NextRequestIDKey, bz)
}

// GetCustodyBalance returns the settlement asset held by the vault
func (k *Keeper) GetCustodyBalance(ctx sdk.Context) math.Int {
	return k.bankKeeper.GetBalance(ctx, k.moduleAddr, types.SettlementDenom).Amount
}

// GetLockedShares returns the share tokens custodied for unapproved requests
func (k *Keeper) GetLockedShares(ctx sdk.Context) math.Int {
	return k.bankKeeper.GetBalance(ctx, k.moduleAddr, types.ShareDenom).Amount
}
