package daemon

import (
	"context"
	"fmt"
	"os"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/yaml"

	"github.com/VerisLabs/hurdleRateOracle/oracle/api"
	"github.com/VerisLabs/hurdleRateOracle/oracle/app"
	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/health"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/router"
	"github.com/VerisLabs/hurdleRateOracle/oracle/scheduler"
	"github.com/VerisLabs/hurdleRateOracle/oracle/submitter"
	"github.com/VerisLabs/hurdleRateOracle/oracle/types"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

type Daemon struct {
	app       *app.App
	router    *router.Router
	scheduler *scheduler.Scheduler
	submitter *submitter.Submitter
	checker   *health.Checker
	api       *api.Server

	owner sdk.AccAddress
}

// New opens the local chain from the loaded config, running genesis on first start.
func New() (*Daemon, error) {
	db, err := app.OpenDB(config.DBBackend(), config.DataDir())
	if err != nil {
		return nil, err
	}

	r := router.New(config.ChannelSize())
	a, err := app.New(config.ChainID(), db, r, log.TMLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	if !a.IsInitialized() {
		genesis, err := LoadGenesis(config.GenesisFile())
		if err != nil {
			return nil, err
		}
		if err := a.InitChain(*genesis); err != nil {
			return nil, fmt.Errorf("failed to init chain: %w", err)
		}
	}

	return NewWithApp(a, r), nil
}

// NewWithApp wires the off-chain components around an initialized app.
func NewWithApp(a *app.App, r *router.Router) *Daemon {
	r.SetNonce(uint64(a.Height()))

	d := &Daemon{
		app:       a,
		router:    r,
		scheduler: scheduler.New(r.Jobs(), scheduler.NewExecutor()),
		submitter: submitter.New(a, r, config.Router()),
		checker:   health.NewChecker(30 * time.Second),
		owner:     config.Owner(),
	}
	d.api = api.NewServer(a, d.checker, api.Options{
		AllowedOrigins: config.AllowedOrigins(),
		AdminToken:     config.AdminToken(),
	})
	a.Subscribe(d.api.Hub().Publish)
	a.Subscribe(logEvents)

	d.checker.AddCheck(health.NewFuncCheck("store", d.checkStore))
	d.checker.AddCheck(health.NewFuncCheck("backlog", d.checkBacklog))
	d.checker.AddCheck(health.NewFuncCheck("source", d.checkSource))

	return d
}

// LoadGenesis reads a JSON or YAML genesis file, or builds the default genesis
// for the configured owner and router when path is empty.
func LoadGenesis(path string) (*rotypes.GenesisState, error) {
	if path == "" {
		return rotypes.DefaultGenesisState(config.Owner(), config.Router()), nil
	}

	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis: %w", err)
	}

	var genesis rotypes.GenesisState
	if err := yaml.Unmarshal(bz, &genesis); err != nil {
		return nil, fmt.Errorf("failed to parse genesis %s: %w", path, err)
	}
	return &genesis, nil
}

func (d *Daemon) App() *app.App {
	return d.app
}

func (d *Daemon) Router() *router.Router {
	return d.router
}

func (d *Daemon) API() *api.Server {
	return d.api
}

// Run blocks until ctx is done or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	d.scheduler.Start(ctx)
	defer d.scheduler.Stop()

	if err := d.redispatch(); err != nil {
		return err
	}

	g.Go(func() error {
		return d.submitter.Run(ctx, d.scheduler.Result())
	})
	g.Go(func() error {
		return d.checker.Start(ctx)
	})
	if config.TriggerEnabled() {
		g.Go(func() error {
			return d.runTrigger(ctx, config.TriggerInterval())
		})
	}
	if config.APIEnabled() {
		g.Go(func() error {
			return d.api.Start(ctx, config.APIListen())
		})
	}

	log.Infof("daemon started at height %d", d.app.Height())
	err := g.Wait()

	submitted, failed := d.submitter.Stats()
	log.Infof("daemon stopped: %d fulfillments delivered, %d rejected", submitted, failed)
	return err
}

// RequestUpdate dispatches a new round as the owner.
func (d *Daemon) RequestUpdate() (common.Hash, error) {
	var secrets *rotypes.SecretsRef
	if slot, version, ok := config.Secrets(); ok {
		secrets = &rotypes.SecretsRef{SlotID: slot, Version: version}
	}

	res, err := d.app.Deliver(rotypes.NewMsgRequestUpdate(d.owner.String(), secrets))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(res.Data), nil
}

// redispatch publishes jobs for requests left open by a previous run.
func (d *Daemon) redispatch() error {
	var jobs []types.Job
	err := d.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		jobs = types.JobsFromPending(k.GetPendingRequests(ctx), k.GetConfig(ctx))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load pending requests: %w", err)
	}

	for _, job := range jobs {
		if _, tracked := d.router.Get(job.RequestID); tracked {
			continue
		}
		log.Infof("redispatching pending request %s", job.RequestID.Hex())
		d.router.Publish(job)
	}
	return nil
}

func (d *Daemon) runTrigger(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.trigger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.trigger()
		}
	}
}

// trigger requests an update when the chain would accept one and no round is
// in flight.
func (d *Daemon) trigger() {
	if n := d.router.InFlight(); n > 0 {
		log.Debugf("trigger: %d requests in flight, skipping", n)
		return
	}

	var ready bool
	err := d.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		st := k.GetStatus(ctx)
		ready = !st.Config.Paused && uint64(ctx.BlockTime().Unix()) >= st.NextUpdate
		return nil
	})
	if err != nil || !ready {
		return
	}

	id, err := d.RequestUpdate()
	if err != nil {
		log.Errorf("trigger: request update failed: %v", err)
		return
	}
	log.Infof("trigger: requested update %s", id.Hex())
}

func (d *Daemon) checkStore(context.Context) error {
	return d.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		return k.GetParams(ctx).Validate()
	})
}

func (d *Daemon) checkBacklog(context.Context) error {
	if n := d.router.InFlight(); n > config.ChannelSize()/2 {
		return fmt.Errorf("%d requests in flight", n)
	}
	return nil
}

func (d *Daemon) checkSource(context.Context) error {
	return d.app.Query(func(ctx sdk.Context, k *keeper.Keeper) error {
		_, err := types.ParseSource(k.GetConfig(ctx).Source)
		return err
	})
}
