package keeper

import (
	"encoding/binary"
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// RegisterToken assigns token to a free lane.
func (k Keeper) RegisterToken(ctx sdk.Context, sender sdk.AccAddress, token common.Address, position uint8) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}
	if token == (common.Address{}) {
		return types.ErrAddressZero
	}
	if position >= types.MaxLanes {
		return errorsmod.Wrapf(types.ErrInvalidPosition, "position %d", position)
	}
	if k.IsPositionOccupied(ctx, position) {
		return errorsmod.Wrapf(types.ErrTokenAlreadyRegistered, "position %d", position)
	}

	k.SetTokenRegistration(ctx, types.TokenRegistration{Token: token, Position: position})

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTokenRegistered,
			sdk.NewAttribute(types.AttributeKeyToken, token.Hex()),
			sdk.NewAttribute(types.AttributeKeyPosition, strconv.FormatUint(uint64(position), 10)),
		),
	)

	k.Logger(ctx).Info("token registered", "token", token.Hex(), "position", position)
	return nil
}

// SetTokenRegistration records the mapping and marks the lane occupied. A token
// registered again at another lane keeps its old lane occupied.
func (k Keeper) SetTokenRegistration(ctx sdk.Context, reg types.TokenRegistration) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.GetTokenPositionKey(reg.Token), []byte{reg.Position})
	k.SetRegisteredPositions(ctx, k.GetRegisteredPositions(ctx)|1<<reg.Position)
}

// SetRegisteredPositions overwrites the lane occupancy bitmap.
func (k Keeper) SetRegisteredPositions(ctx sdk.Context, occupancy uint16) {
	store := ctx.KVStore(k.storeKey)
	bz := make([]byte, 2)
	binary.BigEndian.PutUint16(bz, occupancy)
	store.Set(types.KeyRegisteredPositions, bz)
}

// GetRegisteredPositions returns the lane occupancy bitmap.
func (k Keeper) GetRegisteredPositions(ctx sdk.Context) uint16 {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.KeyRegisteredPositions)
	if len(bz) != 2 {
		return 0
	}
	return binary.BigEndian.Uint16(bz)
}

func (k Keeper) IsPositionOccupied(ctx sdk.Context, position uint8) bool {
	if position >= types.MaxLanes {
		return false
	}
	return k.GetRegisteredPositions(ctx)&(1<<position) != 0
}

// LookupPosition returns the lane recorded for token. Unknown tokens resolve to
// lane 0; callers must check occupancy before trusting the result.
func (k Keeper) LookupPosition(ctx sdk.Context, token common.Address) uint8 {
	position, _ := k.getTokenPosition(ctx, token)
	return position
}

func (k Keeper) IsTokenRegistered(ctx sdk.Context, token common.Address) bool {
	_, found := k.getTokenPosition(ctx, token)
	return found
}

func (k Keeper) getTokenPosition(ctx sdk.Context, token common.Address) (uint8, bool) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.GetTokenPositionKey(token))
	if len(bz) != 1 {
		return 0, false
	}
	return bz[0], true
}

// GetTokenRegistrations returns every token mapping in key order.
func (k Keeper) GetTokenRegistrations(ctx sdk.Context) []types.TokenRegistration {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.KeyTokenPosition)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	var regs []types.TokenRegistration
	for ; iterator.Valid(); iterator.Next() {
		if len(iterator.Value()) != 1 {
			continue
		}
		regs = append(regs, types.TokenRegistration{
			Token:    common.BytesToAddress(iterator.Key()),
			Position: iterator.Value()[0],
		})
	}
	return regs
}

// GetRate returns token's rate and the time of the last update. Tokens that
// were never registered fail instead of resolving to lane 0.
func (k Keeper) GetRate(ctx sdk.Context, token common.Address) (uint16, time.Time, error) {
	position, found := k.getTokenPosition(ctx, token)
	if !found || !k.IsPositionOccupied(ctx, position) {
		return 0, time.Time{}, errorsmod.Wrapf(types.ErrTokenNotRegistered, "token %s", token.Hex())
	}

	rate, err := types.UnpackLane(k.GetCurrentRates(ctx), position)
	if err != nil {
		return 0, time.Time{}, err
	}

	return rate, time.Unix(int64(k.GetLastUpdate(ctx)), 0).UTC(), nil
}

// GetRateByPosition returns the raw lane value at position.
func (k Keeper) GetRateByPosition(ctx sdk.Context, position uint8) (uint16, error) {
	return types.UnpackLane(k.GetCurrentRates(ctx), position)
}
