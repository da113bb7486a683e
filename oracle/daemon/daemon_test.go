package daemon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	abci "github.com/tendermint/tendermint/abci/types"
	tmlog "github.com/tendermint/tendermint/libs/log"
	tmdb "github.com/tendermint/tm-db"
	"sigs.k8s.io/yaml"

	"github.com/VerisLabs/hurdleRateOracle/oracle/app"
	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/router"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

var _ = ginkgo.Describe("Daemon", func() {
	var (
		db      tmdb.DB
		source  *httptest.Server
		failing atomic.Bool
		a       *app.App
		r       *router.Router
		d       *Daemon
		cancel  context.CancelFunc
		done    chan error

		eventsMu sync.Mutex
		events   []string
	)

	newApp := func(r *router.Router) *app.App {
		a, err := app.New(config.ChainID(), db, r, tmlog.NewNopLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		a.Subscribe(func(_ int64, evs []abci.Event) {
			eventsMu.Lock()
			defer eventsMu.Unlock()
			for _, ev := range evs {
				events = append(events, ev.Type)
			}
		})
		return a
	}

	start := func() {
		d = NewWithApp(a, r)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- d.Run(ctx) }()
	}

	rate := func(token common.Address) uint16 {
		var value uint16
		gomega.Expect(a.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
			value, _, _ = k.GetRate(ctx, token)
			return nil
		})).To(gomega.Succeed())
		return value
	}

	pending := func() int {
		var n int
		gomega.Expect(a.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
			n = len(k.GetPendingRequests(ctx))
			return nil
		})).To(gomega.Succeed())
		return n
	}

	seen := func(eventType string) func() bool {
		return func() bool {
			eventsMu.Lock()
			defer eventsMu.Unlock()
			for _, ev := range events {
				if ev == eventType {
					return true
				}
			}
			return false
		}
	}

	ginkgo.BeforeEach(func() {
		config.SetForTesting(tempDir(), 2, 1)

		failing.Store(false)
		events = nil
		source = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if failing.Load() {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `{"lidoApyBasisPoints": 350, "usdyApyBasisPoints": 420}`)
		}))

		genesis := rotypes.DefaultGenesisState(config.Owner(), config.Router())
		genesis.Config.Source = fmt.Sprintf(
			`{"url":"%s/apy","layout":"split","upper":"lidoApyBasisPoints","lower":"usdyApyBasisPoints"}`, source.URL)

		db = tmdb.NewMemDB()
		r = router.New(config.ChannelSize())
		a = newApp(r)
		gomega.Expect(a.InitChain(*genesis)).To(gomega.Succeed())
	})

	ginkgo.AfterEach(func() {
		if cancel != nil {
			cancel()
			gomega.Eventually(done, 5*time.Second).Should(gomega.Receive(gomega.BeNil()))
			cancel = nil
		}
		source.Close()
	})

	ginkgo.It("fulfills a requested round", func() {
		start()

		id, err := d.RequestUpdate()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(id).NotTo(gomega.Equal(common.Hash{}))

		gomega.Eventually(func() uint16 { return rate(rotypes.USDC) }, 5*time.Second).Should(gomega.Equal(uint16(350)))
		gomega.Expect(rate(rotypes.WETH)).To(gomega.Equal(uint16(420)))
		gomega.Eventually(r.InFlight, time.Second).Should(gomega.BeZero())
		gomega.Expect(pending()).To(gomega.BeZero())
		gomega.Expect(seen(rotypes.EventTypeRatesFulfilled)()).To(gomega.BeTrue())
	})

	ginkgo.It("rejects a second round inside the update interval", func() {
		start()

		_, err := d.RequestUpdate()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Eventually(seen(rotypes.EventTypeRatesFulfilled), 5*time.Second).Should(gomega.BeTrue())

		_, err = d.RequestUpdate()
		gomega.Expect(err).To(gomega.MatchError(rotypes.ErrUpdateTooFrequent))
	})

	ginkgo.It("closes the round as errored when the source fails", func() {
		failing.Store(true)
		start()

		_, err := d.RequestUpdate()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Eventually(seen(rotypes.EventTypeRateRequestFailed), 5*time.Second).Should(gomega.BeTrue())
		gomega.Expect(pending()).To(gomega.BeZero())
		gomega.Expect(rate(rotypes.WETH)).To(gomega.BeZero())

		// an errored round leaves the interval clock untouched
		failing.Store(false)
		_, err = d.RequestUpdate()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Eventually(func() uint16 { return rate(rotypes.WETH) }, 5*time.Second).Should(gomega.Equal(uint16(420)))
	})

	ginkgo.It("redispatches requests left open by a previous run", func() {
		_, err := a.Deliver(rotypes.NewMsgRequestUpdate(config.Owner().String(), nil))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(pending()).To(gomega.Equal(1))

		// restart on the same store with a fresh router
		r = router.New(config.ChannelSize())
		a = newApp(r)
		start()

		gomega.Eventually(pending, 5*time.Second).Should(gomega.BeZero())
		gomega.Expect(rate(rotypes.USDC)).To(gomega.Equal(uint16(350)))
	})

	ginkgo.It("does not trigger while paused", func() {
		_, err := a.Deliver(rotypes.NewMsgSetPaused(config.Owner().String(), true))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		start()

		d.trigger()
		gomega.Expect(pending()).To(gomega.BeZero())
		gomega.Consistently(r.InFlight, 100*time.Millisecond).Should(gomega.BeZero())
	})

	ginkgo.It("reports health for the local chain", func() {
		start()

		d.checker.RunChecks(context.Background())
		gomega.Expect(d.checker.IsHealthy()).To(gomega.BeTrue())
		gomega.Expect(d.checker.Names()).To(gomega.ConsistOf("backlog", "source", "store"))
	})
})

var _ = ginkgo.Describe("LoadGenesis", func() {
	ginkgo.BeforeEach(func() {
		config.SetForTesting(tempDir(), 1, 1)
	})

	ginkgo.It("builds the default genesis without a file", func() {
		genesis, err := LoadGenesis("")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(genesis.Owner).To(gomega.Equal(config.Owner().String()))
		gomega.Expect(genesis.Router).To(gomega.Equal(config.Router().String()))
		gomega.Expect(genesis.Validate()).To(gomega.Succeed())
	})

	ginkgo.It("reads an exported YAML genesis", func() {
		exported := rotypes.DefaultGenesisState(config.Owner(), config.Router())
		exported.LastUpdate = 1_700_000_000
		exported.History = []rotypes.RateSnapshot{
			rotypes.NewRateSnapshot(mustPack(500, 300), 1_700_000_000),
		}

		bz, err := yaml.Marshal(exported)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		path := filepath.Join(tempDir(), "genesis.yaml")
		gomega.Expect(os.WriteFile(path, bz, 0o600)).To(gomega.Succeed())

		genesis, err := LoadGenesis(path)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(genesis.LastUpdate).To(gomega.Equal(uint64(1_700_000_000)))
		gomega.Expect(genesis.History).To(gomega.HaveLen(1))
		gomega.Expect(genesis.History[0].Rates.String()).To(gomega.Equal("19661300"))
		gomega.Expect(genesis.Validate()).To(gomega.Succeed())
	})

	ginkgo.It("fails on a missing file", func() {
		_, err := LoadGenesis(filepath.Join(tempDir(), "missing.json"))
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})

func mustPack(rates ...uint16) *uint256.Int {
	bitmap, err := rotypes.PackRates(rates)
	if err != nil {
		panic(err)
	}
	return bitmap
}

func tempDir() string {
	dir, err := os.MkdirTemp("", "rateoracled")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	ginkgo.DeferCleanup(os.RemoveAll, dir)
	return dir
}
