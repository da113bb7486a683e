package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RequestStatus is the lifecycle state of a single request.
type RequestStatus byte

const (
	StatusIdle RequestStatus = iota
	StatusRequested
	StatusFulfilled
	StatusErrored
)

func (s RequestStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRequested:
		return "requested"
	case StatusFulfilled:
		return "fulfilled"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// TokenRegistration maps a token to its lane.
type TokenRegistration struct {
	Token    common.Address `json:"token" yaml:"token"`
	Position uint8          `json:"position" yaml:"position"`
}

// PendingRequest is an open request and the block time it was opened at.
type PendingRequest struct {
	RequestID common.Hash `json:"request_id" yaml:"request_id"`
	OpenedAt  uint64      `json:"opened_at" yaml:"opened_at"`
}

// FulfillResult describes the outcome of a fulfillment.
type FulfillResult struct {
	RequestID    common.Hash
	Status       RequestStatus
	Rates        *uint256.Int
	Timestamp    uint64
	HistoryIndex uint64
	HasHistory   bool
	Err          []byte
}

// Default token registrations seeded at genesis.
var (
	WETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	USDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func DefaultTokens() []TokenRegistration {
	return []TokenRegistration{
		{Token: WETH, Position: 0},
		{Token: USDC, Position: 1},
	}
}
