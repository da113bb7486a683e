package rateoracle

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// InitGenesis loads the rateoracle genesis state into the store
func InitGenesis(ctx sdk.Context, k *keeper.Keeper, data types.GenesisState) {
	if err := data.Validate(); err != nil {
		panic(errorsmod.Wrapf(sdkerrors.ErrInvalidRequest, "%s: %s", types.ModuleName, err))
	}

	k.SetParams(ctx, data.Params)
	k.SetOwner(ctx, sdk.MustAccAddressFromBech32(data.Owner))
	k.SetRouterAddress(ctx, sdk.MustAccAddressFromBech32(data.Router))
	k.SetConfig(ctx, data.Config)

	for _, reg := range data.Tokens {
		k.SetTokenRegistration(ctx, reg)
	}
	k.SetRegisteredPositions(ctx, data.RegisteredPositions)

	rates, err := types.UintToBitmap(data.CurrentRates)
	if err != nil {
		panic(errorsmod.Wrapf(err, "error setting current rates"))
	}
	k.SetCurrentRates(ctx, rates)
	k.SetLastUpdate(ctx, data.LastUpdate)

	for _, req := range data.PendingRequests {
		k.SetPendingRequest(ctx, req)
	}

	for _, snap := range data.History {
		bitmap, err := snap.Bitmap()
		if err != nil {
			panic(errorsmod.Wrapf(err, "error loading history"))
		}
		k.AppendSnapshot(ctx, bitmap, snap.Timestamp)
	}
}

// ExportGenesis returns a GenesisState for a given context and keeper.
func ExportGenesis(ctx sdk.Context, k *keeper.Keeper) *types.GenesisState {
	history, err := k.GetAllSnapshots(ctx)
	if err != nil {
		panic(errorsmod.Wrapf(err, "error exporting history"))
	}

	tokens := k.GetTokenRegistrations(ctx)
	if tokens == nil {
		tokens = []types.TokenRegistration{}
	}
	pending := k.GetPendingRequests(ctx)
	if pending == nil {
		pending = []types.PendingRequest{}
	}

	return &types.GenesisState{
		Params:              k.GetParams(ctx),
		Owner:               k.GetOwner(ctx).String(),
		Router:              k.GetRouterAddress(ctx).String(),
		Config:              k.GetConfig(ctx),
		Tokens:              tokens,
		RegisteredPositions: k.GetRegisteredPositions(ctx),
		CurrentRates:        types.BitmapToUint(k.GetCurrentRates(ctx)),
		LastUpdate:          k.GetLastUpdate(ctx),
		PendingRequests:     pending,
		History:             history,
	}
}
