package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"

	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

var (
	stranger = sdk.AccAddress([]byte("stranger____________"))
	dai      = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func (suite *ServerTestSuite) postRaw(raw []byte, token string) (int, gjson.Result) {
	req, err := http.NewRequest(http.MethodPost, suite.http.URL+"/tx", bytes.NewReader(raw))
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	suite.Require().NoError(err)
	suite.Require().True(gjson.ValidBytes(body), string(body))
	return res.StatusCode, gjson.ParseBytes(body)
}

func (suite *ServerTestSuite) postTx(msg types.Msg) (int, gjson.Result) {
	raw, err := types.EncodeMsgJSON(msg)
	suite.Require().NoError(err)
	return suite.postRaw(raw, adminToken)
}

func (suite *ServerTestSuite) config() types.OracleConfig {
	var config types.OracleConfig
	suite.Require().NoError(suite.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		config = k.GetConfig(ctx)
		return nil
	}))
	return config
}

func (suite *ServerTestSuite) TestTxOwnerMessages() {
	sender := owner.String()
	donID := types.DonIDFromString("don-2")

	tests := []struct {
		name     string
		msg      types.Msg
		expEvent string
		check    func(ctx sdk.Context, k *keeper.Keeper)
	}{
		{
			name:     "register token",
			msg:      types.NewMsgRegisterToken(sender, dai, 4),
			expEvent: types.EventTypeTokenRegistered,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.True(k.IsTokenRegistered(ctx, dai))
				suite.Equal(uint8(4), k.LookupPosition(ctx, dai))
			},
		},
		{
			name:     "pause",
			msg:      types.NewMsgSetPaused(sender, true),
			expEvent: types.EventTypePauseChanged,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.True(k.GetConfig(ctx).Paused)
			},
		},
		{
			name:     "set source",
			msg:      types.NewMsgSetSource(sender, `{"url":"http://localhost/apy","layout":"bitmap"}`),
			expEvent: types.EventTypeSourceUpdated,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.Equal(`{"url":"http://localhost/apy","layout":"bitmap"}`, k.GetConfig(ctx).Source)
			},
		},
		{
			name:     "set subscription id",
			msg:      types.NewMsgSetSubscriptionID(sender, 9),
			expEvent: types.EventTypeSubscriptionUpdated,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.Equal(uint64(9), k.GetConfig(ctx).SubscriptionID)
			},
		},
		{
			name:     "set don id",
			msg:      types.NewMsgSetDonID(sender, donID),
			expEvent: types.EventTypeDonIDUpdated,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.Equal(donID, k.GetConfig(ctx).DonID)
			},
		},
		{
			name:     "set gas limit",
			msg:      types.NewMsgSetGasLimit(sender, 250000),
			expEvent: types.EventTypeGasLimitUpdated,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.Equal(uint32(250000), k.GetConfig(ctx).GasLimit)
			},
		},
		{
			name:     "transfer ownership",
			msg:      types.NewMsgTransferOwnership(sender, stranger.String()),
			expEvent: types.EventTypeOwnershipTransferred,
			check: func(ctx sdk.Context, k *keeper.Keeper) {
				suite.Equal(stranger, k.GetOwner(ctx))
			},
		},
	}

	// applied in order on one chain; ownership moves last
	for _, tc := range tests {
		suite.Run(tc.name, func() {
			code, body := suite.postTx(tc.msg)
			suite.Require().Equal(http.StatusOK, code, body.Raw)
			suite.Equal(tc.msg.Type(), body.Get("type").String())
			suite.Equal(suite.app.Height(), body.Get("height").Int())
			suite.True(body.Get(`events.#(type=="`+tc.expEvent+`")`).Exists(), body.Raw)

			suite.Require().NoError(suite.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
				tc.check(ctx, k)
				return nil
			}))
		})
	}
}

func (suite *ServerTestSuite) TestTxRequestUpdate() {
	code, body := suite.postTx(types.NewMsgRequestUpdate(owner.String(), &types.SecretsRef{SlotID: 1, Version: 3}))
	suite.Require().Equal(http.StatusOK, code, body.Raw)

	job := <-suite.router.Jobs()
	suite.Equal(job.RequestID.Hex(), common.HexToHash(body.Get("data").String()).Hex())
	suite.Equal(uint64(3), job.Secrets.Version)

	code, body = suite.postTx(types.NewMsgRequestUpdate(owner.String(), nil))
	suite.Equal(http.StatusOK, code, body.Raw)
	<-suite.router.Jobs()
}

func (suite *ServerTestSuite) TestTxCleanupHistory() {
	suite.fulfill()
	suite.now = suite.now.Add(2 * time.Hour)

	code, body := suite.postTx(types.NewMsgCleanupOldHistory(owner.String(), 3600))
	suite.Require().Equal(http.StatusOK, code, body.Raw)
	suite.Equal("0", body.Get(`events.#(type=="history_cleaned").attributes.length_after`).String())

	code, body = suite.get("/history")
	suite.Equal(http.StatusOK, code)
	suite.Equal(int64(0), body.Get("length").Int())
}

func (suite *ServerTestSuite) TestTxRejections() {
	raw, err := types.EncodeMsgJSON(types.NewMsgSetPaused(owner.String(), true))
	suite.Require().NoError(err)

	code, body := suite.postRaw(raw, "")
	suite.Equal(http.StatusUnauthorized, code)
	suite.Contains(body.Get("error").String(), "admin token")

	code, _ = suite.postRaw(raw, "wrong")
	suite.Equal(http.StatusUnauthorized, code)

	code, _ = suite.postTx(types.NewMsgSetPaused(stranger.String(), true))
	suite.Equal(http.StatusForbidden, code)

	code, _ = suite.postTx(types.NewMsgSetSource(stranger.String(), ""))
	suite.Equal(http.StatusForbidden, code)

	code, _ = suite.postTx(types.NewMsgSetSource(owner.String(), ""))
	suite.Equal(http.StatusBadRequest, code)

	code, _ = suite.postTx(types.NewMsgRegisterToken(owner.String(), dai, 0))
	suite.Equal(http.StatusConflict, code)

	code, body = suite.postTx(types.NewMsgFulfill(routerID.String(), common.HexToHash("0x01"), make([]byte, types.ResponseSize), nil))
	suite.Equal(http.StatusBadRequest, code)
	suite.Contains(body.Get("error").String(), "not accepted")

	code, body = suite.postRaw([]byte(`{"type":"mint","msg":{}}`), adminToken)
	suite.Equal(http.StatusBadRequest, code)
	suite.Contains(body.Get("error").String(), "unknown message type")

	suite.False(suite.config().Paused)
	suite.Equal(int64(1), suite.app.Height())
}
