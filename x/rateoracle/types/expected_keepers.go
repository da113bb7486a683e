package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
)

// FunctionsRequest is the payload handed to the DON router.
type FunctionsRequest struct {
	Source         string
	Secrets        *SecretsRef
	SubscriptionID uint64
	GasLimit       uint32
	DonID          common.Hash
}

// Router dispatches requests to the off-chain network and returns the request
// id the network will later fulfill.
type Router interface {
	SendRequest(ctx sdk.Context, req FunctionsRequest) (common.Hash, error)
}
