package keeper

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/holiman/uint256"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

type Keeper struct {
	cdc      *codec.LegacyAmino
	storeKey storetypes.StoreKey

	router types.Router
}

func NewKeeper(
	cdc *codec.LegacyAmino,
	storeKey storetypes.StoreKey,
	router types.Router,
) *Keeper {
	return &Keeper{
		cdc:      cdc,
		storeKey: storeKey,
		router:   router,
	}
}

// SetRouter replaces the request router used by RequestUpdate.
func (k *Keeper) SetRouter(router types.Router) {
	k.router = router
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

func (k Keeper) SetParams(ctx sdk.Context, params types.Params) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyParams, k.cdc.MustMarshal(&params))
}

func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.KeyParams)
	if len(bz) == 0 {
		return types.DefaultParams()
	}

	var params types.Params
	k.cdc.MustUnmarshal(bz, &params)
	return params
}

func (k Keeper) SetConfig(ctx sdk.Context, config types.OracleConfig) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyConfig, k.cdc.MustMarshal(&config))
}

func (k Keeper) GetConfig(ctx sdk.Context) types.OracleConfig {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.KeyConfig)
	if len(bz) == 0 {
		return types.DefaultOracleConfig()
	}

	var config types.OracleConfig
	k.cdc.MustUnmarshal(bz, &config)
	return config
}

// SetOwner sets the account allowed to call the admin entry points.
func (k Keeper) SetOwner(ctx sdk.Context, owner sdk.AccAddress) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyOwner, owner.Bytes())
}

// GetOwner returns the current owner.
func (k Keeper) GetOwner(ctx sdk.Context) sdk.AccAddress {
	store := ctx.KVStore(k.storeKey)
	return sdk.AccAddress(store.Get(types.KeyOwner))
}

// SetRouterAddress sets the account allowed to deliver fulfillments.
func (k Keeper) SetRouterAddress(ctx sdk.Context, router sdk.AccAddress) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyRouter, router.Bytes())
}

// GetRouterAddress returns the account allowed to deliver fulfillments.
func (k Keeper) GetRouterAddress(ctx sdk.Context) sdk.AccAddress {
	store := ctx.KVStore(k.storeKey)
	return sdk.AccAddress(store.Get(types.KeyRouter))
}

func (k Keeper) assertOwner(ctx sdk.Context, sender sdk.AccAddress) error {
	owner := k.GetOwner(ctx)
	if owner.Empty() || !owner.Equals(sender) {
		return errorsmod.Wrap(sdkerrors.ErrUnauthorized, "caller is not the owner")
	}
	return nil
}

// Authorize checks that sender may send msg: fulfillments come from the
// router, everything else from the owner.
func (k Keeper) Authorize(ctx sdk.Context, msg types.Msg, sender sdk.AccAddress) error {
	if _, ok := msg.(*types.MsgFulfill); ok {
		return k.assertRouter(ctx, sender)
	}
	return k.assertOwner(ctx, sender)
}

func (k Keeper) assertRouter(ctx sdk.Context, sender sdk.AccAddress) error {
	router := k.GetRouterAddress(ctx)
	if router.Empty() || !router.Equals(sender) {
		return errorsmod.Wrap(sdkerrors.ErrUnauthorized, "caller is not the router")
	}
	return nil
}

func (k Keeper) SetCurrentRates(ctx sdk.Context, bitmap *uint256.Int) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyCurrentRates, types.EncodeResponse(bitmap))
}

// GetCurrentRates returns the last fulfilled bitmap, zero before the first update.
func (k Keeper) GetCurrentRates(ctx sdk.Context) *uint256.Int {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.KeyCurrentRates)
	return new(uint256.Int).SetBytes(bz)
}

func (k Keeper) SetLastUpdate(ctx sdk.Context, timestamp uint64) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyLastUpdate, types.Uint64ToBytes(timestamp))
}

// GetLastUpdate returns the block time, in seconds, of the last successful fulfillment.
func (k Keeper) GetLastUpdate(ctx sdk.Context) uint64 {
	store := ctx.KVStore(k.storeKey)
	return types.BytesToUint64(store.Get(types.KeyLastUpdate))
}

func blockTime(ctx sdk.Context) uint64 {
	ts := ctx.BlockTime().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}
