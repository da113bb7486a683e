package rateoracle

import (
	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// Handler executes a single rateoracle message.
type Handler func(ctx sdk.Context, msg types.Msg) (*sdk.Result, error)

// NewHandler creates a new handler for rateoracle messages
func NewHandler(k *keeper.Keeper) Handler {
	return func(ctx sdk.Context, msg types.Msg) (*sdk.Result, error) {
		ctx = ctx.WithEventManager(sdk.NewEventManager())

		sender, err := sdk.AccAddressFromBech32(msg.GetSender())
		if err != nil {
			return nil, errorsmod.Wrapf(sdkerrors.ErrInvalidAddress, "invalid sender address (%s)", err)
		}
		if err := k.Authorize(ctx, msg, sender); err != nil {
			return nil, err
		}
		if err := msg.ValidateBasic(); err != nil {
			return nil, err
		}

		switch msg := msg.(type) {
		case *types.MsgRequestUpdate:
			requestID, err := k.RequestUpdate(ctx, sender, msg.Secrets)
			if err != nil {
				return nil, err
			}
			return &sdk.Result{Data: requestID.Bytes(), Events: ctx.EventManager().ABCIEvents()}, nil

		case *types.MsgFulfill:
			_, err := k.Fulfill(ctx, sender, msg.RequestID, msg.Response, msg.Err)
			if err != nil {
				if types.IsRoundConsumed(err) {
					return &sdk.Result{Events: ctx.EventManager().ABCIEvents()}, err
				}
				return nil, err
			}
			return wrapResult(ctx, nil)

		case *types.MsgRegisterToken:
			return wrapResult(ctx, k.RegisterToken(ctx, sender, msg.Token, msg.Position))

		case *types.MsgSetPaused:
			return wrapResult(ctx, k.SetPaused(ctx, sender, msg.Paused))

		case *types.MsgSetSource:
			return wrapResult(ctx, k.SetSource(ctx, sender, msg.Source))

		case *types.MsgSetSubscriptionID:
			return wrapResult(ctx, k.SetSubscriptionID(ctx, sender, msg.SubscriptionID))

		case *types.MsgSetDonID:
			return wrapResult(ctx, k.SetDonID(ctx, sender, msg.DonID))

		case *types.MsgSetGasLimit:
			return wrapResult(ctx, k.SetGasLimit(ctx, sender, msg.GasLimit))

		case *types.MsgCleanupOldHistory:
			return wrapResult(ctx, k.CleanupOldHistory(ctx, sender, msg.MaxAge))

		case *types.MsgTransferOwnership:
			return wrapResult(ctx, k.TransferOwnership(ctx, sender, sdk.MustAccAddressFromBech32(msg.NewOwner)))

		default:
			err := errorsmod.Wrapf(sdkerrors.ErrUnknownRequest, "unrecognized %s message type: %T", types.ModuleName, msg)
			return nil, err
		}
	}
}

func wrapResult(ctx sdk.Context, err error) (*sdk.Result, error) {
	if err != nil {
		return nil, err
	}
	return &sdk.Result{Events: ctx.EventManager().ABCIEvents()}, nil
}
