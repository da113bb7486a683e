package keeper

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// OpenRequest marks id as awaiting fulfillment.
func (k Keeper) OpenRequest(ctx sdk.Context, id common.Hash) error {
	if k.IsPending(ctx, id) {
		return errorsmod.Wrapf(types.ErrRequestAlreadyOpen, "request %s", id.Hex())
	}

	k.SetPendingRequest(ctx, types.PendingRequest{RequestID: id, OpenedAt: blockTime(ctx)})
	return nil
}

// CloseRequest removes id from the open set.
func (k Keeper) CloseRequest(ctx sdk.Context, id common.Hash) error {
	if !k.IsPending(ctx, id) {
		return errorsmod.Wrapf(types.ErrRequestNotFound, "request %s", id.Hex())
	}

	store := ctx.KVStore(k.storeKey)
	store.Delete(types.GetPendingRequestKey(id))
	return nil
}

func (k Keeper) IsPending(ctx sdk.Context, id common.Hash) bool {
	store := ctx.KVStore(k.storeKey)
	return store.Has(types.GetPendingRequestKey(id))
}

func (k Keeper) SetPendingRequest(ctx sdk.Context, req types.PendingRequest) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.GetPendingRequestKey(req.RequestID), types.Uint64ToBytes(req.OpenedAt))
}

// GetPendingRequests returns all open requests ordered by id.
func (k Keeper) GetPendingRequests(ctx sdk.Context) []types.PendingRequest {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyPendingRequest)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	var reqs []types.PendingRequest
	for ; iterator.Valid(); iterator.Next() {
		reqs = append(reqs, types.PendingRequest{
			RequestID: common.BytesToHash(iterator.Key()),
			OpenedAt:  types.BytesToUint64(iterator.Value()),
		})
	}
	return reqs
}
