package rateoracle

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

type unknownMsg struct{}

func (unknownMsg) Route() string                { return types.RouterKey }
func (unknownMsg) Type() string                 { return "unknown" }
func (unknownMsg) ValidateBasic() error         { return nil }
func (unknownMsg) GetSigners() []sdk.AccAddress { return []sdk.AccAddress{owner} }
func (unknownMsg) GetSender() string            { return owner.String() }

func TestHandler(t *testing.T) {
	stranger := sdk.AccAddress([]byte("stranger____________"))
	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	tests := []struct {
		name     string
		msg      types.Msg
		expErr   error
		expEvent string
	}{
		{
			name:     "1. register token",
			msg:      types.NewMsgRegisterToken(owner.String(), dai, 2),
			expEvent: types.EventTypeTokenRegistered,
		},
		{
			name:   "2. register token on occupied lane",
			msg:    types.NewMsgRegisterToken(owner.String(), dai, 0),
			expErr: types.ErrTokenAlreadyRegistered,
		},
		{
			name:   "3. register token as stranger",
			msg:    types.NewMsgRegisterToken(stranger.String(), dai, 2),
			expErr: sdkerrors.ErrUnauthorized,
		},
		{
			name:     "4. pause",
			msg:      types.NewMsgSetPaused(owner.String(), true),
			expEvent: types.EventTypePauseChanged,
		},
		{
			name:     "5. set source",
			msg:      types.NewMsgSetSource(owner.String(), `{"url":"http://localhost/apy","layout":"bitmap"}`),
			expEvent: types.EventTypeSourceUpdated,
		},
		{
			name:   "6. set empty source",
			msg:    types.NewMsgSetSource(owner.String(), ""),
			expErr: types.ErrInvalidSource,
		},
		{
			name:     "7. set subscription id",
			msg:      types.NewMsgSetSubscriptionID(owner.String(), 9),
			expEvent: types.EventTypeSubscriptionUpdated,
		},
		{
			name:     "8. set don id",
			msg:      types.NewMsgSetDonID(owner.String(), types.DonIDFromString("don-2")),
			expEvent: types.EventTypeDonIDUpdated,
		},
		{
			name:     "9. set gas limit",
			msg:      types.NewMsgSetGasLimit(owner.String(), 1),
			expEvent: types.EventTypeGasLimitUpdated,
		},
		{
			name:     "10. cleanup history",
			msg:      types.NewMsgCleanupOldHistory(owner.String(), 3600),
			expEvent: types.EventTypeHistoryCleaned,
		},
		{
			name:     "11. request update",
			msg:      types.NewMsgRequestUpdate(owner.String(), nil),
			expEvent: types.EventTypeRateRequested,
		},
		{
			name:   "12. fulfill unknown request",
			msg:    types.NewMsgFulfill(routerID.String(), common.HexToHash("0xff"), make([]byte, 32), nil),
			expErr: types.ErrRequestNotFound,
		},
		{
			name:     "13. transfer ownership",
			msg:      types.NewMsgTransferOwnership(owner.String(), stranger.String()),
			expEvent: types.EventTypeOwnershipTransferred,
		},
		{
			name:   "14. empty source as stranger",
			msg:    types.NewMsgSetSource(stranger.String(), ""),
			expErr: sdkerrors.ErrUnauthorized,
		},
		{
			name:   "15. zero subscription as stranger",
			msg:    types.NewMsgSetSubscriptionID(stranger.String(), 0),
			expErr: sdkerrors.ErrUnauthorized,
		},
		{
			name:   "16. fulfill from owner",
			msg:    types.NewMsgFulfill(owner.String(), common.Hash{}, nil, nil),
			expErr: sdkerrors.ErrUnauthorized,
		},
		{
			name:   "17. unknown message",
			msg:    unknownMsg{},
			expErr: sdkerrors.ErrUnknownRequest,
		},
		{
			name:   "18. invalid sender",
			msg:    types.NewMsgSetPaused("invalid", true),
			expErr: sdkerrors.ErrInvalidAddress,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, k := setupTest(t)
			InitGenesis(ctx, k, *types.DefaultGenesisState(owner, routerID))
			handler := NewHandler(k)

			res, err := handler(ctx, tc.msg)
			if tc.expErr != nil {
				require.ErrorIs(t, err, tc.expErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, res)
			require.NotEmpty(t, res.Events)
			require.Equal(t, tc.expEvent, res.Events[0].Type)
		})
	}
}

func TestHandlerRoundTrip(t *testing.T) {
	ctx, k := setupTest(t)
	InitGenesis(ctx, k, *types.DefaultGenesisState(owner, routerID))
	handler := NewHandler(k)

	res, err := handler(ctx, types.NewMsgRequestUpdate(owner.String(), &types.SecretsRef{SlotID: 0, Version: 1}))
	require.NoError(t, err)
	requestID := common.BytesToHash(res.Data)
	require.True(t, k.IsPending(ctx, requestID))

	res, err = handler(ctx, types.NewMsgFulfill(routerID.String(), requestID, make([]byte, 32), nil))
	require.ErrorIs(t, err, types.ErrInvalidRates)
	require.NotNil(t, res)
	require.False(t, k.IsPending(ctx, requestID))

	_, err = handler(ctx, types.NewMsgRequestUpdate(owner.String(), nil))
	require.NoError(t, err)
}
