package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	tmlog "github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"
	"github.com/tidwall/gjson"

	"github.com/VerisLabs/hurdleRateOracle/oracle/app"
	"github.com/VerisLabs/hurdleRateOracle/oracle/health"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/router"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

var (
	owner    = sdk.AccAddress([]byte("owner_______________"))
	routerID = sdk.AccAddress([]byte("router______________"))
)

const (
	genesisTime = 1_700_000_000
	adminToken  = "s3cret"
)

type ServerTestSuite struct {
	suite.Suite
	app     *app.App
	router  *router.Router
	checker *health.Checker
	server  *Server
	http    *httptest.Server
	now     time.Time
}

func (suite *ServerTestSuite) SetupSuite() {
	log.InitLogger()
}

func (suite *ServerTestSuite) SetupTest() {
	var err error
	suite.now = time.Unix(genesisTime, 0)
	suite.router = router.New(8)
	suite.app, err = app.New("test-1", tmdb.NewMemDB(), suite.router, tmlog.NewNopLogger())
	suite.Require().NoError(err)
	suite.app.SetClock(func() time.Time { return suite.now })
	suite.Require().NoError(suite.app.InitChain(*types.DefaultGenesisState(owner, routerID)))

	suite.checker = health.NewChecker(time.Hour)
	suite.server = NewServer(suite.app, suite.checker, Options{AllowedOrigins: []string{"*"}, AdminToken: adminToken})
	suite.app.Subscribe(suite.server.Hub().Publish)
	suite.http = httptest.NewServer(suite.server.Handler())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.server.Hub().Close()
	suite.http.Close()
}

// fulfill runs one request/fulfill round with lane 0 = 500 and lane 1 = 300.
func (suite *ServerTestSuite) fulfill() {
	res, err := suite.app.Deliver(types.NewMsgRequestUpdate(owner.String(), nil))
	suite.Require().NoError(err)
	<-suite.router.Jobs()

	bitmap, err := types.PackRates([]uint16{500, 300})
	suite.Require().NoError(err)
	_, err = suite.app.Deliver(types.NewMsgFulfill(routerID.String(), common.BytesToHash(res.Data), types.EncodeResponse(bitmap), nil))
	suite.Require().NoError(err)
}

func (suite *ServerTestSuite) get(path string) (int, gjson.Result) {
	res, err := http.Get(suite.http.URL + path)
	suite.Require().NoError(err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	suite.Require().NoError(err)
	suite.Require().True(gjson.ValidBytes(raw), string(raw))
	return res.StatusCode, gjson.ParseBytes(raw)
}

func (suite *ServerTestSuite) TestRates() {
	suite.fulfill()

	code, body := suite.get("/rates")
	suite.Equal(http.StatusOK, code)
	suite.Equal("19661300", body.Get("bitmap").String())
	suite.Equal(int64(500), body.Get("lanes.0").Int())
	suite.Equal(int64(300), body.Get("lanes.1").Int())
	suite.Len(body.Get("lanes").Array(), types.MaxLanes)
	suite.Equal(uint64(genesisTime), body.Get("last_update").Uint())
	suite.Equal(suite.app.Height(), body.Get("height").Int())
}

func (suite *ServerTestSuite) TestRateByToken() {
	suite.fulfill()

	code, body := suite.get("/rates/" + types.USDC.Hex())
	suite.Equal(http.StatusOK, code)
	suite.Equal(int64(300), body.Get("rate").Int())
	suite.Equal(int64(1), body.Get("position").Int())
	suite.Equal(int64(genesisTime), body.Get("updated_at").Int())
}

func (suite *ServerTestSuite) TestRateByTokenErrors() {
	code, body := suite.get("/rates/not-an-address")
	suite.Equal(http.StatusBadRequest, code)
	suite.Contains(body.Get("error").String(), "invalid token address")

	code, body = suite.get("/rates/0x000000000000000000000000000000000000dEaD")
	suite.Equal(http.StatusNotFound, code)
	suite.Contains(body.Get("error").String(), "token not registered")
}

func (suite *ServerTestSuite) TestPositions() {
	code, body := suite.get("/positions")
	suite.Equal(http.StatusOK, code)
	suite.Equal(int64(3), body.Get("occupancy").Int())
	suite.Len(body.Get("tokens").Array(), 2)
}

func (suite *ServerTestSuite) TestHistory() {
	suite.fulfill()

	code, body := suite.get("/history")
	suite.Equal(http.StatusOK, code)
	suite.Equal(int64(1), body.Get("length").Int())
	suite.Equal("19661300", body.Get("snapshots.0.rates").String())

	code, body = suite.get(fmt.Sprintf("/history?start=%d&end=%d", genesisTime, genesisTime+10))
	suite.Equal(http.StatusOK, code)
	suite.Len(body.Get("snapshots").Array(), 1)

	code, body = suite.get(fmt.Sprintf("/history?start=%d&end=%d", genesisTime+1, genesisTime+10))
	suite.Equal(http.StatusOK, code)
	suite.Empty(body.Get("snapshots").Array())

	code, _ = suite.get("/history?start=10&end=10")
	suite.Equal(http.StatusBadRequest, code)

	code, _ = suite.get("/history?start=abc&end=10")
	suite.Equal(http.StatusBadRequest, code)
}

func (suite *ServerTestSuite) TestSnapshot() {
	suite.fulfill()

	code, body := suite.get("/history/0")
	suite.Equal(http.StatusOK, code)
	suite.Equal(uint64(genesisTime), body.Get("snapshot.timestamp").Uint())

	code, _ = suite.get("/history/1")
	suite.Equal(http.StatusNotFound, code)

	code, body = suite.get(fmt.Sprintf("/history/at/%d", genesisTime))
	suite.Equal(http.StatusOK, code)
	suite.Equal(int64(0), body.Get("index").Int())

	code, _ = suite.get("/history/at/1")
	suite.Equal(http.StatusNotFound, code)
}

func (suite *ServerTestSuite) TestPendingAndStatus() {
	res, err := suite.app.Deliver(types.NewMsgRequestUpdate(owner.String(), nil))
	suite.Require().NoError(err)

	code, body := suite.get("/pending")
	suite.Equal(http.StatusOK, code)
	suite.Require().Len(body.Get("pending").Array(), 1)
	suite.Equal(strings.ToLower(fmt.Sprintf("0x%x", res.Data)), strings.ToLower(body.Get("pending.0.request_id").String()))

	code, body = suite.get("/status")
	suite.Equal(http.StatusOK, code)
	suite.Equal(owner.String(), body.Get("owner").String())
	suite.Equal(int64(1), body.Get("pending_count").Int())
	suite.Equal(uint64(types.DefaultMinUpdateInterval/time.Second), body.Get("next_update").Uint())
	suite.True(body.Get("params.history_enabled").Bool())
}

func (suite *ServerTestSuite) TestHealth() {
	code, body := suite.get("/healthz")
	suite.Equal(http.StatusOK, code)
	suite.True(body.Get("healthy").Bool())

	suite.checker.AddCheck(health.NewFuncCheck("source", func(context.Context) error {
		return errors.New("unreachable")
	}))
	suite.checker.RunChecks(context.Background())

	code, body = suite.get("/healthz")
	suite.Equal(http.StatusServiceUnavailable, code)
	suite.False(body.Get("healthy").Bool())
	suite.Equal("unreachable", body.Get("checks.source.error").String())
}

func (suite *ServerTestSuite) TestMethodNotAllowed() {
	res, err := http.Post(suite.http.URL+"/rates", "application/json", nil)
	suite.Require().NoError(err)
	res.Body.Close()
	suite.Equal(http.StatusMethodNotAllowed, res.StatusCode)
}

func (suite *ServerTestSuite) TestWebsocketEvents() {
	url := "ws" + strings.TrimPrefix(suite.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	suite.Eventually(func() bool { return suite.server.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	_, err = suite.app.Deliver(types.NewMsgSetPaused(owner.String(), true))
	suite.Require().NoError(err)

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, msg, err := conn.ReadMessage()
	suite.Require().NoError(err)

	ev := gjson.GetBytes(msg, `events.#(type=="pause_changed")`)
	suite.True(ev.Exists(), string(msg))
	suite.Equal("true", ev.Get("attributes.paused").String())
	suite.Equal(suite.app.Height(), gjson.GetBytes(msg, "height").Int())
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
