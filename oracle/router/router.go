package router

import (
	"encoding/binary"
	"fmt"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/types"
	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

var _ rotypes.Router = &Router{}

// Router is the in-process DON entry point. Requests are staged while the
// dispatching transaction runs and only published once it commits.
type Router struct {
	mu     sync.Mutex
	nonce  uint64
	staged []types.Job

	requests cmap.ConcurrentMap[string, types.Job]
	jobQueue chan types.Job
}

func New(size int) *Router {
	return &Router{
		requests: cmap.New[types.Job](),
		jobQueue: make(chan types.Job, size),
	}
}

// SetNonce resumes request numbering after a restart. Each request occupies
// its own block, so the committed height is never below the last nonce used.
func (r *Router) SetNonce(nonce uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if nonce > r.nonce {
		r.nonce = nonce
	}
}

// RequestID derives the id of the nonce-th request for a subscription.
func RequestID(subscriptionID, nonce uint64, donID common.Hash) common.Hash {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], subscriptionID)
	binary.BigEndian.PutUint64(buf[8:], nonce)
	return crypto.Keccak256Hash(buf, donID.Bytes())
}

func (r *Router) SendRequest(_ sdk.Context, req rotypes.FunctionsRequest) (common.Hash, error) {
	if req.SubscriptionID == 0 {
		return common.Hash{}, fmt.Errorf("subscription id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nonce++
	id := RequestID(req.SubscriptionID, r.nonce, req.DonID)
	r.staged = append(r.staged, types.NewJob(id, req, r.nonce))

	log.Debugf("router: staged request %s (nonce %d)", id.Hex(), r.nonce)
	return id, nil
}

// Commit tracks the staged requests of a written transaction and returns them
// for Dispatch.
func (r *Router) Commit() []types.Job {
	r.mu.Lock()
	staged := r.staged
	r.staged = nil
	r.mu.Unlock()

	for _, job := range staged {
		r.requests.Set(job.RequestID.Hex(), job)
	}
	return staged
}

// Dispatch queues committed jobs for execution. It blocks while the queue is
// full.
func (r *Router) Dispatch(jobs []types.Job) {
	for _, job := range jobs {
		r.jobQueue <- job
	}
}

// Rollback drops the staged requests of a discarded transaction.
func (r *Router) Rollback() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.staged) > 0 {
		log.Debugf("router: dropped %d staged requests", len(r.staged))
	}
	r.staged = nil
}

// Publish queues job for execution and tracks it until Done is called.
func (r *Router) Publish(job types.Job) {
	r.requests.Set(job.RequestID.Hex(), job)
	r.Dispatch([]types.Job{job})
}

// Done stops tracking a request once its fulfillment has been delivered.
func (r *Router) Done(requestID common.Hash) {
	r.requests.Remove(requestID.Hex())
}

func (r *Router) Get(requestID common.Hash) (types.Job, bool) {
	return r.requests.Get(requestID.Hex())
}

// InFlight returns the number of published requests not yet delivered.
func (r *Router) InFlight() int {
	return r.requests.Count()
}

func (r *Router) Jobs() <-chan types.Job {
	return r.jobQueue
}
