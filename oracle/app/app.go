package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/cosmos/cosmos-sdk/store"
	storetypes "github.com/cosmos/cosmos-sdk/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	tmlog "github.com/tendermint/tendermint/libs/log"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	tmdb "github.com/tendermint/tm-db"

	"github.com/VerisLabs/hurdleRateOracle/oracle/router"
	oracletypes "github.com/VerisLabs/hurdleRateOracle/oracle/types"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// EventHook observes the events of every committed message.
type EventHook func(height int64, events []abci.Event)

// App is a single-writer local chain holding the rateoracle store. Every
// delivered message is its own block.
type App struct {
	mu sync.RWMutex

	db       tmdb.DB
	cms      storetypes.CommitMultiStore
	storeKey *storetypes.KVStoreKey
	keeper   *keeper.Keeper
	router   *router.Router
	handler  rateoracle.Handler
	logger   tmlog.Logger

	chainID  string
	lastTime time.Time
	now      func() time.Time

	hooksMu sync.RWMutex
	hooks   []EventHook
}

// OpenDB opens the state database for the given backend under dir.
func OpenDB(backend, dir string) (tmdb.DB, error) {
	switch backend {
	case string(tmdb.MemDBBackend):
		return tmdb.NewMemDB(), nil
	case string(tmdb.GoLevelDBBackend):
		db, err := tmdb.NewDB("rateoracle", tmdb.GoLevelDBBackend, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open state db in %s", dir)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported db backend: %s", backend)
	}
}

func New(chainID string, db tmdb.DB, r *router.Router, logger tmlog.Logger) (*App, error) {
	storeKey := sdk.NewKVStoreKey(types.StoreKey)

	cms := store.NewCommitMultiStore(db)
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "failed to load state")
	}

	k := keeper.NewKeeper(types.ModuleCdc, storeKey, r)

	return &App{
		db:       db,
		cms:      cms,
		storeKey: storeKey,
		keeper:   k,
		router:   r,
		handler:  rateoracle.NewHandler(k),
		logger:   logger,
		chainID:  chainID,
		now:      time.Now,
	}, nil
}

// SetClock replaces the source of block time.
func (a *App) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

func (a *App) Subscribe(hook EventHook) {
	a.hooksMu.Lock()
	defer a.hooksMu.Unlock()
	a.hooks = append(a.hooks, hook)
}

func (a *App) Keeper() *keeper.Keeper {
	return a.keeper
}

func (a *App) Height() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cms.LastCommitID().Version
}

// IsInitialized reports whether a genesis has been committed.
func (a *App) IsInitialized() bool {
	return a.Height() > 0
}

// InitChain loads genesis into an empty store and commits it as block 1.
func (a *App) InitChain(genesis types.GenesisState) error {
	if err := genesis.Validate(); err != nil {
		return errors.Wrap(err, "invalid genesis")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cms.LastCommitID().Version > 0 {
		return fmt.Errorf("chain already initialized at height %d", a.cms.LastCommitID().Version)
	}

	ctx, write := a.newContext().CacheContext()
	rateoracle.InitGenesis(ctx, a.keeper, genesis)
	write()
	a.commit()

	a.logger.Info("genesis committed", "chain_id", a.chainID, "owner", genesis.Owner, "router", genesis.Router)
	return nil
}

// Deliver executes msg as a new block. State is written on success and on
// errors that consume the fulfillment round; dispatched jobs are released
// only when state is written, after the state lock is dropped.
func (a *App) Deliver(msg types.Msg) (*sdk.Result, error) {
	height, jobs, res, err := a.deliver(msg)
	if height == 0 {
		return nil, err
	}

	a.router.Dispatch(jobs)
	if res != nil {
		a.emit(height, res.Events)
	}
	return res, err
}

func (a *App) deliver(msg types.Msg) (height int64, jobs []oracletypes.Job, res *sdk.Result, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			a.router.Rollback()
			height, jobs, res = 0, nil, nil
			err = fmt.Errorf("failed to deliver %s: %v", msg.Type(), r)
		}
	}()

	ctx, write := a.newContext().CacheContext()
	res, err = a.handler(ctx, msg)
	if err != nil && !types.IsRoundConsumed(err) {
		a.router.Rollback()
		return 0, nil, nil, err
	}

	write()
	height = a.commit()
	return height, a.router.Commit(), res, err
}

// Query runs fn against a read-only view of the latest state.
func (a *App) Query(fn func(ctx sdk.Context, k *keeper.Keeper) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	header := tmproto.Header{
		ChainID: a.chainID,
		Height:  a.cms.LastCommitID().Version,
		Time:    a.blockTime(),
	}
	ctx := sdk.NewContext(a.cms.CacheMultiStore(), header, false, a.logger)
	return fn(ctx, a.keeper)
}

func (a *App) ExportGenesis() (*types.GenesisState, error) {
	var genesis *types.GenesisState
	err := a.Query(func(ctx sdk.Context, k *keeper.Keeper) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("failed to export genesis: %v", r)
			}
		}()
		genesis = rateoracle.ExportGenesis(ctx, k)
		return nil
	})
	return genesis, err
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) newContext() sdk.Context {
	header := tmproto.Header{
		ChainID: a.chainID,
		Height:  a.cms.LastCommitID().Version + 1,
		Time:    a.blockTime(),
	}
	return sdk.NewContext(a.cms, header, false, a.logger)
}

// blockTime never goes backwards.
func (a *App) blockTime() time.Time {
	now := a.now().UTC()
	if now.Before(a.lastTime) {
		return a.lastTime
	}
	return now
}

func (a *App) commit() int64 {
	a.lastTime = a.blockTime()
	id := a.cms.Commit()
	return id.Version
}

func (a *App) emit(height int64, events []abci.Event) {
	a.hooksMu.RLock()
	defer a.hooksMu.RUnlock()

	for _, hook := range a.hooks {
		hook(height, events)
	}
}
