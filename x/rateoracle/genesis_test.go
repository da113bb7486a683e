package rateoracle

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

var (
	owner    = sdk.AccAddress([]byte("owner_______________"))
	routerID = sdk.AccAddress([]byte("router______________"))
)

type stubRouter struct {
	nonce byte
}

func (r *stubRouter) SendRequest(_ sdk.Context, _ types.FunctionsRequest) (common.Hash, error) {
	r.nonce++
	return common.BytesToHash([]byte{r.nonce}), nil
}

func setupTest(t *testing.T) (sdk.Context, *keeper.Keeper) {
	storeKey := sdk.NewKVStoreKey(types.StoreKey)
	memStoreKey := storetypes.NewMemoryStoreKey(types.MemStoreKey)

	db := tmdb.NewMemDB()
	stateStore := store.NewCommitMultiStore(db)
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(memStoreKey, storetypes.StoreTypeMemory, nil)
	require.NoError(t, stateStore.LoadLatestVersion())

	k := keeper.NewKeeper(types.ModuleCdc, storeKey, &stubRouter{})

	ctx := sdk.NewContext(stateStore, tmproto.Header{Time: time.Unix(1_700_000_000, 0)}, false, log.NewNopLogger())
	return ctx, k
}

func TestInitGenesis(t *testing.T) {
	tests := []struct {
		name     string
		malleate func(gs *types.GenesisState)
		expPanic bool
	}{
		{
			name:     "1. default genesis state",
			malleate: func(gs *types.GenesisState) {},
		},
		{
			name: "2. genesis with rates and history",
			malleate: func(gs *types.GenesisState) {
				gs.CurrentRates = sdkmath.NewUint(500<<16 | 25)
				gs.LastUpdate = 1_699_990_000
				gs.PendingRequests = []types.PendingRequest{{RequestID: common.HexToHash("0x0a"), OpenedAt: 5}}
				gs.History = []types.RateSnapshot{
					{Rates: sdkmath.NewUint(10), Timestamp: 100},
					{Rates: sdkmath.NewUint(500<<16 | 25), Timestamp: 1_699_990_000},
				}
			},
		},
		{
			name:     "3. empty owner",
			malleate: func(gs *types.GenesisState) { gs.Owner = "" },
			expPanic: true,
		},
		{
			name: "4. duplicated lane",
			malleate: func(gs *types.GenesisState) {
				gs.Tokens = append(gs.Tokens, types.TokenRegistration{Token: common.HexToAddress("0x01"), Position: 0})
			},
			expPanic: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, k := setupTest(t)

			gs := types.DefaultGenesisState(owner, routerID)
			tc.malleate(gs)

			if tc.expPanic {
				require.Panics(t, func() { InitGenesis(ctx, k, *gs) })
				return
			}

			require.NotPanics(t, func() { InitGenesis(ctx, k, *gs) })
			require.Equal(t, owner, k.GetOwner(ctx))
			require.Equal(t, routerID, k.GetRouterAddress(ctx))
			require.Equal(t, uint16(0b11), k.GetRegisteredPositions(ctx))
			require.Equal(t, uint64(len(gs.History)), k.HistoryLength(ctx))
		})
	}
}

func TestExportGenesisRoundTrip(t *testing.T) {
	ctx, k := setupTest(t)

	gs := types.DefaultGenesisState(owner, routerID)
	gs.CurrentRates = sdkmath.NewUint(500<<16 | 25)
	gs.LastUpdate = 1_699_990_000
	gs.PendingRequests = []types.PendingRequest{{RequestID: common.HexToHash("0x0a"), OpenedAt: 5}}
	gs.History = []types.RateSnapshot{{Rates: sdkmath.NewUint(10), Timestamp: 100}}

	InitGenesis(ctx, k, *gs)
	exported := ExportGenesis(ctx, k)

	require.NoError(t, exported.Validate())
	require.Equal(t, gs.Params, exported.Params)
	require.Equal(t, gs.Owner, exported.Owner)
	require.Equal(t, gs.Router, exported.Router)
	require.Equal(t, gs.Config, exported.Config)
	require.ElementsMatch(t, gs.Tokens, exported.Tokens)
	require.True(t, gs.CurrentRates.Equal(exported.CurrentRates))
	require.Equal(t, gs.LastUpdate, exported.LastUpdate)
	require.Equal(t, gs.PendingRequests, exported.PendingRequests)
	require.Len(t, exported.History, 1)
	require.Equal(t, uint64(100), exported.History[0].Timestamp)
}

func TestExportGenesisAfterFulfill(t *testing.T) {
	ctx, k := setupTest(t)
	InitGenesis(ctx, k, *types.DefaultGenesisState(owner, routerID))

	id, err := k.RequestUpdate(ctx, owner, nil)
	require.NoError(t, err)

	exported := ExportGenesis(ctx, k)
	require.Len(t, exported.PendingRequests, 1)
	require.Equal(t, id, exported.PendingRequests[0].RequestID)

	bitmap, err := types.PackSplit(500, 25)
	require.NoError(t, err)
	_, err = k.Fulfill(ctx, routerID, id, types.EncodeResponse(bitmap), nil)
	require.NoError(t, err)

	exported = ExportGenesis(ctx, k)
	require.Empty(t, exported.PendingRequests)
	require.Equal(t, "32768025", exported.CurrentRates.String())
	require.Len(t, exported.History, 1)
}

func TestExportGenesisKeepsVacatedLanes(t *testing.T) {
	ctx, k := setupTest(t)
	InitGenesis(ctx, k, *types.DefaultGenesisState(owner, routerID))

	require.NoError(t, k.RegisterToken(ctx, owner, types.WETH, 5))
	require.Equal(t, uint16(0b100011), k.GetRegisteredPositions(ctx))

	exported := ExportGenesis(ctx, k)
	require.NoError(t, exported.Validate())
	require.Equal(t, uint16(0b100011), exported.RegisteredPositions)

	ctx, k = setupTest(t)
	InitGenesis(ctx, k, *exported)
	require.Equal(t, uint16(0b100011), k.GetRegisteredPositions(ctx))
	require.Equal(t, uint8(5), k.LookupPosition(ctx, types.WETH))

	err := k.RegisterToken(ctx, owner, types.USDC, 0)
	require.ErrorIs(t, err, types.ErrTokenAlreadyRegistered)
}
