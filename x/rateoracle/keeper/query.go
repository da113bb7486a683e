package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/holiman/uint256"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// GetAllRates returns the current bitmap.
func (k Keeper) GetAllRates(ctx sdk.Context) *uint256.Int {
	return k.GetCurrentRates(ctx)
}

// GetBitmap packs rates without touching state.
func (k Keeper) GetBitmap(rates []uint16) (*uint256.Int, error) {
	return types.PackRates(rates)
}

// Status summarizes the oracle for the query API.
type Status struct {
	Owner               string
	Router              string
	Config              types.OracleConfig
	Params              types.Params
	LastUpdate          uint64
	NextUpdate          uint64
	RegisteredPositions uint16
	HistoryLength       uint64
	PendingCount        int
}

func (k Keeper) GetStatus(ctx sdk.Context) Status {
	params := k.GetParams(ctx)
	lastUpdate := k.GetLastUpdate(ctx)

	return Status{
		Owner:               k.GetOwner(ctx).String(),
		Router:              k.GetRouterAddress(ctx).String(),
		Config:              k.GetConfig(ctx),
		Params:              params,
		LastUpdate:          lastUpdate,
		NextUpdate:          params.NextUpdate(lastUpdate),
		RegisteredPositions: k.GetRegisteredPositions(ctx),
		HistoryLength:       k.HistoryLength(ctx),
		PendingCount:        len(k.GetPendingRequests(ctx)),
	}
}
