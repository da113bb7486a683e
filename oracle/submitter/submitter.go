package submitter

import (
	"context"
	"fmt"
	"sync/atomic"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/types"
	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// Deliverer executes a message against the chain.
type Deliverer interface {
	Deliver(msg rotypes.Msg) (*sdk.Result, error)
}

// Tracker is told when a request no longer needs to be followed.
type Tracker interface {
	Done(requestID common.Hash)
}

// Submitter turns job results into fulfillments signed by the router address.
type Submitter struct {
	app     Deliverer
	tracker Tracker
	sender  sdk.AccAddress

	submitted atomic.Uint64
	failed    atomic.Uint64
}

func New(app Deliverer, tracker Tracker, sender sdk.AccAddress) *Submitter {
	return &Submitter{
		app:     app,
		tracker: tracker,
		sender:  sender,
	}
}

// BuildMessage creates the fulfillment for a job result. A failed job is
// forwarded as error bytes so the round is closed.
func (s *Submitter) BuildMessage(jr types.JobResult) *rotypes.MsgFulfill {
	if jr.Failed() {
		return rotypes.NewMsgFulfill(s.sender.String(), jr.RequestID, nil, jr.Err)
	}
	return rotypes.NewMsgFulfill(s.sender.String(), jr.RequestID, jr.Response, nil)
}

// Submit delivers the fulfillment for jr. The request stops being tracked
// whatever the outcome, since a rejected fulfillment cannot be retried.
func (s *Submitter) Submit(jr types.JobResult) error {
	defer s.tracker.Done(jr.RequestID)

	_, err := s.app.Deliver(s.BuildMessage(jr))
	if err != nil {
		s.failed.Add(1)
		if rotypes.IsRoundConsumed(err) {
			return fmt.Errorf("request %s closed without update: %w", jr.RequestID.Hex(), err)
		}
		return fmt.Errorf("failed to deliver fulfillment for %s: %w", jr.RequestID.Hex(), err)
	}

	s.submitted.Add(1)
	log.Debugf("fulfillment delivered: %s", jr.RequestID.Hex())
	return nil
}

// Run submits results until ctx is done or results is closed.
func (s *Submitter) Run(ctx context.Context, results <-chan types.JobResult) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case jr, ok := <-results:
			if !ok {
				return nil
			}
			if err := s.Submit(jr); err != nil {
				log.Errorf("%v", err)
			}
		}
	}
}

// Stats returns the number of delivered and rejected fulfillments.
func (s *Submitter) Stats() (submitted, failed uint64) {
	return s.submitted.Load(), s.failed.Load()
}
