package keeper

import (
	"strconv"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/armon/go-metrics"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

func (k Keeper) isDispatchLocked(ctx sdk.Context) bool {
	return ctx.KVStore(k.storeKey).Has(types.KeyDispatchLock)
}

func (k Keeper) setDispatchLock(ctx sdk.Context, locked bool) {
	store := ctx.KVStore(k.storeKey)
	if locked {
		store.Set(types.KeyDispatchLock, []byte{1})
		return
	}
	store.Delete(types.KeyDispatchLock)
}

// RequestUpdate dispatches a rate request to the router and opens it in the
// request ledger.
func (k Keeper) RequestUpdate(ctx sdk.Context, sender sdk.AccAddress, secrets *types.SecretsRef) (common.Hash, error) {
	if err := k.assertOwner(ctx, sender); err != nil {
		return common.Hash{}, err
	}
	if k.isDispatchLocked(ctx) {
		return common.Hash{}, types.ErrReentrantCall
	}

	config := k.GetConfig(ctx)
	if config.Paused {
		return common.Hash{}, types.ErrPaused
	}

	params := k.GetParams(ctx)
	now := blockTime(ctx)
	lastUpdate := k.GetLastUpdate(ctx)
	if !params.UpdateAllowed(lastUpdate, now) {
		return common.Hash{}, errorsmod.Wrapf(
			types.ErrUpdateTooFrequent,
			"last update %d, next allowed at %d", lastUpdate, params.NextUpdate(lastUpdate),
		)
	}

	if k.router == nil {
		return common.Hash{}, types.ErrRouterNotSet
	}

	k.setDispatchLock(ctx, true)
	defer k.setDispatchLock(ctx, false)

	requestID, err := k.router.SendRequest(ctx, types.FunctionsRequest{
		Source:         config.Source,
		Secrets:        secrets,
		SubscriptionID: config.SubscriptionID,
		GasLimit:       config.GasLimit,
		DonID:          config.DonID,
	})
	if err != nil {
		return common.Hash{}, errorsmod.Wrap(err, "failed to dispatch request")
	}

	if err := k.OpenRequest(ctx, requestID); err != nil {
		return common.Hash{}, err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeRateRequested,
			sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
			sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatUint(now, 10)),
		),
	)

	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "request"},
		1,
		[]metrics.Label{telemetry.NewLabel("status", types.StatusRequested.String())},
	)

	k.Logger(ctx).Info("rate update requested", "request_id", requestID.Hex())
	return requestID, nil
}

// Fulfill settles an open request. An error payload closes the round as
// errored without touching the rates. ErrInvalidRates and ErrInvalidResponse
// are returned after the request has been closed; see types.IsRoundConsumed.
func (k Keeper) Fulfill(
	ctx sdk.Context,
	sender sdk.AccAddress,
	requestID common.Hash,
	response []byte,
	errBytes []byte,
) (types.FulfillResult, error) {
	defer telemetry.MeasureSince(time.Now(), types.ModuleName, "fulfill")

	if err := k.assertRouter(ctx, sender); err != nil {
		return types.FulfillResult{}, err
	}
	if err := k.CloseRequest(ctx, requestID); err != nil {
		return types.FulfillResult{}, err
	}

	result := types.FulfillResult{RequestID: requestID}

	if len(errBytes) > 0 {
		ctx.EventManager().EmitEvent(
			sdk.NewEvent(
				types.EventTypeRateRequestFailed,
				sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
				sdk.NewAttribute(types.AttributeKeyError, hexutil.Encode(errBytes)),
			),
		)
		k.incrFulfillCounter(types.StatusErrored)

		k.Logger(ctx).Error("rate request failed", "request_id", requestID.Hex(), "error", string(errBytes))

		result.Status = types.StatusErrored
		result.Err = errBytes
		return result, nil
	}

	bitmap, err := types.DecodeResponse(response)
	if err != nil {
		k.incrFulfillCounter(types.StatusErrored)
		return result, err
	}
	if bitmap.IsZero() {
		k.incrFulfillCounter(types.StatusErrored)
		return result, errorsmod.Wrap(types.ErrInvalidRates, "zero bitmap")
	}
	if err := types.ValidateBitmap(bitmap); err != nil {
		k.incrFulfillCounter(types.StatusErrored)
		return result, errorsmod.Wrap(types.ErrInvalidRates, err.Error())
	}

	now := blockTime(ctx)
	k.SetCurrentRates(ctx, bitmap)
	k.SetLastUpdate(ctx, now)

	attrs := []sdk.Attribute{
		sdk.NewAttribute(types.AttributeKeyRequestID, requestID.Hex()),
		sdk.NewAttribute(types.AttributeKeyRates, bitmap.ToBig().String()),
		sdk.NewAttribute(types.AttributeKeyTimestamp, strconv.FormatUint(now, 10)),
	}

	if k.GetParams(ctx).HistoryEnabled {
		index := k.AppendSnapshot(ctx, bitmap, now)
		result.HistoryIndex = index
		result.HasHistory = true
		attrs = append(attrs, sdk.NewAttribute(types.AttributeKeyHistoryIndex, strconv.FormatUint(index, 10)))
	}

	ctx.EventManager().EmitEvent(sdk.NewEvent(types.EventTypeRatesFulfilled, attrs...))
	k.incrFulfillCounter(types.StatusFulfilled)

	k.Logger(ctx).Info("rates fulfilled", "request_id", requestID.Hex(), "rates", bitmap.Hex())

	result.Status = types.StatusFulfilled
	result.Rates = bitmap
	result.Timestamp = now
	return result, nil
}

func (k Keeper) incrFulfillCounter(status types.RequestStatus) {
	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, "fulfill"},
		1,
		[]metrics.Label{telemetry.NewLabel("status", status.String())},
	)
}
