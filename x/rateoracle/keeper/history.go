package keeper

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/holiman/uint256"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// HistoryLength returns the number of stored snapshots.
func (k Keeper) HistoryLength(ctx sdk.Context) uint64 {
	store := ctx.KVStore(k.storeKey)
	return types.BytesToUint64(store.Get(types.KeyHistoryLength))
}

func (k Keeper) setHistoryLength(ctx sdk.Context, length uint64) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.KeyHistoryLength, types.Uint64ToBytes(length))
}

func (k Keeper) setSnapshot(ctx sdk.Context, index uint64, snap types.RateSnapshot) {
	bz, err := types.MarshalSnapshot(snap)
	if err != nil {
		panic(err)
	}
	store := ctx.KVStore(k.storeKey)
	store.Set(types.GetHistoryKey(index), bz)
}

func (k Keeper) setTimestampIndex(ctx sdk.Context, timestamp, index uint64) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.GetHistoryTimestampKey(timestamp), types.Uint64ToBytes(index))
}

// AppendSnapshot stores a snapshot at the next index and points its timestamp
// at it. A later snapshot with the same timestamp takes over the mapping.
func (k Keeper) AppendSnapshot(ctx sdk.Context, bitmap *uint256.Int, timestamp uint64) uint64 {
	index := k.HistoryLength(ctx)
	k.setSnapshot(ctx, index, types.NewRateSnapshot(bitmap, timestamp))
	k.setTimestampIndex(ctx, timestamp, index)
	k.setHistoryLength(ctx, index+1)
	return index
}

// GetSnapshotAt returns the snapshot stored at index.
func (k Keeper) GetSnapshotAt(ctx sdk.Context, index uint64) (types.RateSnapshot, error) {
	if index >= k.HistoryLength(ctx) {
		return types.RateSnapshot{}, errorsmod.Wrapf(types.ErrIndexOutOfBounds, "index %d", index)
	}

	store := ctx.KVStore(k.storeKey)
	return types.UnmarshalSnapshot(store.Get(types.GetHistoryKey(index)))
}

// GetSnapshotIndexAt returns the index last written for timestamp.
func (k Keeper) GetSnapshotIndexAt(ctx sdk.Context, timestamp uint64) (uint64, bool) {
	store := ctx.KVStore(k.storeKey)
	bz := store.Get(types.GetHistoryTimestampKey(timestamp))
	if len(bz) != 8 {
		return 0, false
	}
	return types.BytesToUint64(bz), true
}

// GetSnapshotsInRange returns snapshots with start <= timestamp <= end in
// index order.
func (k Keeper) GetSnapshotsInRange(ctx sdk.Context, start, end uint64) ([]types.RateSnapshot, error) {
	if start >= end {
		return nil, errorsmod.Wrapf(types.ErrInvalidTimeRange, "start %d, end %d", start, end)
	}

	all, err := k.GetAllSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, snap := range all {
		if snap.Timestamp >= start && snap.Timestamp <= end {
			count++
		}
	}

	snaps := make([]types.RateSnapshot, 0, count)
	for _, snap := range all {
		if snap.Timestamp >= start && snap.Timestamp <= end {
			snaps = append(snaps, snap)
		}
	}
	return snaps, nil
}

// GetAllSnapshots returns every snapshot in index order.
func (k Keeper) GetAllSnapshots(ctx sdk.Context) ([]types.RateSnapshot, error) {
	length := k.HistoryLength(ctx)
	snaps := make([]types.RateSnapshot, 0, length)
	for i := uint64(0); i < length; i++ {
		snap, err := k.GetSnapshotAt(ctx, i)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// CleanupOldHistory removes snapshots older than maxAge seconds. Removed slots
// are filled with the last snapshot, so index order is not preserved.
func (k Keeper) CleanupOldHistory(ctx sdk.Context, sender sdk.AccAddress, maxAge uint64) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}

	now := blockTime(ctx)
	var cutoff uint64
	if now > maxAge {
		cutoff = now - maxAge
	}

	before := k.HistoryLength(ctx)
	length := before
	store := ctx.KVStore(k.storeKey)

	for i := uint64(0); i < length; {
		snap, err := k.GetSnapshotAt(ctx, i)
		if err != nil {
			return err
		}
		if snap.Timestamp >= cutoff {
			i++
			continue
		}

		if idx, found := k.GetSnapshotIndexAt(ctx, snap.Timestamp); found && idx == i {
			store.Delete(types.GetHistoryTimestampKey(snap.Timestamp))
		}

		last := length - 1
		if i != last {
			moved, err := k.GetSnapshotAt(ctx, last)
			if err != nil {
				return err
			}
			k.setSnapshot(ctx, i, moved)
			if idx, found := k.GetSnapshotIndexAt(ctx, moved.Timestamp); found && idx == last {
				k.setTimestampIndex(ctx, moved.Timestamp, i)
			}
		}
		store.Delete(types.GetHistoryKey(last))
		length--
		k.setHistoryLength(ctx, length)
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeHistoryCleaned,
			sdk.NewAttribute(types.AttributeKeyLengthBefore, strconv.FormatUint(before, 10)),
			sdk.NewAttribute(types.AttributeKeyLengthAfter, strconv.FormatUint(length, 10)),
		),
	)

	k.Logger(ctx).Info("history cleaned", "before", before, "after", length)
	return nil
}
