package keeper

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

func (k Keeper) SetPaused(ctx sdk.Context, sender sdk.AccAddress, paused bool) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}

	config := k.GetConfig(ctx)
	config.Paused = paused
	k.SetConfig(ctx, config)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePauseChanged,
			sdk.NewAttribute(types.AttributeKeyPaused, strconv.FormatBool(paused)),
		),
	)
	return nil
}

func (k Keeper) SetSource(ctx sdk.Context, sender sdk.AccAddress, source string) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}
	if source == "" {
		return types.ErrInvalidSource
	}

	config := k.GetConfig(ctx)
	config.Source = source
	k.SetConfig(ctx, config)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSourceUpdated,
			sdk.NewAttribute(types.AttributeKeySource, source),
		),
	)
	return nil
}

func (k Keeper) SetSubscriptionID(ctx sdk.Context, sender sdk.AccAddress, id uint64) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}

	config := k.GetConfig(ctx)
	if id == 0 || id == config.SubscriptionID {
		return errorsmod.Wrapf(types.ErrInvalidSubscriptionID, "subscription id %d", id)
	}
	config.SubscriptionID = id
	k.SetConfig(ctx, config)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSubscriptionUpdated,
			sdk.NewAttribute(types.AttributeKeySubscriptionID, strconv.FormatUint(id, 10)),
		),
	)
	return nil
}

func (k Keeper) SetDonID(ctx sdk.Context, sender sdk.AccAddress, donID common.Hash) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}

	config := k.GetConfig(ctx)
	if donID == (common.Hash{}) || donID == config.DonID {
		return errorsmod.Wrapf(types.ErrInvalidDonID, "don id %s", donID.Hex())
	}
	config.DonID = donID
	k.SetConfig(ctx, config)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDonIDUpdated,
			sdk.NewAttribute(types.AttributeKeyDonID, donID.Hex()),
		),
	)
	return nil
}

func (k Keeper) SetGasLimit(ctx sdk.Context, sender sdk.AccAddress, gasLimit uint32) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}
	if gasLimit == 0 {
		return types.ErrInvalidGasLimit
	}

	config := k.GetConfig(ctx)
	config.GasLimit = gasLimit
	k.SetConfig(ctx, config)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeGasLimitUpdated,
			sdk.NewAttribute(types.AttributeKeyGasLimit, strconv.FormatUint(uint64(gasLimit), 10)),
		),
	)
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (k Keeper) TransferOwnership(ctx sdk.Context, sender, newOwner sdk.AccAddress) error {
	if err := k.assertOwner(ctx, sender); err != nil {
		return err
	}
	if newOwner.Empty() {
		return types.ErrAddressZero
	}

	k.SetOwner(ctx, newOwner)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeOwnershipTransferred,
			sdk.NewAttribute(types.AttributeKeyPreviousOwner, sender.String()),
			sdk.NewAttribute(types.AttributeKeyNewOwner, newOwner.String()),
		),
	)

	k.Logger(ctx).Info("ownership transferred", "new_owner", newOwner.String())
	return nil
}
