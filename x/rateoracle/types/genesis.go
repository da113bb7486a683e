package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
)

// GenesisState defines the rateoracle module's genesis state. RegisteredPositions
// is the lane occupancy bitmap; a lane stays set after its token moves away.
type GenesisState struct {
	Params              Params              `json:"params" yaml:"params"`
	Owner               string              `json:"owner" yaml:"owner"`
	Router              string              `json:"router" yaml:"router"`
	Config              OracleConfig        `json:"config" yaml:"config"`
	Tokens              []TokenRegistration `json:"tokens" yaml:"tokens"`
	RegisteredPositions uint16              `json:"registered_positions" yaml:"registered_positions"`
	CurrentRates        sdkmath.Uint        `json:"current_rates" yaml:"current_rates"`
	LastUpdate          uint64              `json:"last_update" yaml:"last_update"`
	PendingRequests     []PendingRequest    `json:"pending_requests" yaml:"pending_requests"`
	History             []RateSnapshot      `json:"history" yaml:"history"`
}

// DefaultGenesisState returns a genesis state owned by owner and fulfilled by router.
func DefaultGenesisState(owner, router sdk.AccAddress) *GenesisState {
	tokens := DefaultTokens()
	return &GenesisState{
		Params:              DefaultParams(),
		Owner:               owner.String(),
		Router:              router.String(),
		Config:              DefaultOracleConfig(),
		Tokens:              tokens,
		RegisteredPositions: Occupancy(tokens),
		CurrentRates:        sdkmath.ZeroUint(),
		PendingRequests:     []PendingRequest{},
		History:             []RateSnapshot{},
	}
}

// Occupancy returns the lanes used by regs.
func Occupancy(regs []TokenRegistration) uint16 {
	var occupied uint16
	for _, reg := range regs {
		if reg.Position < MaxLanes {
			occupied |= 1 << reg.Position
		}
	}
	return occupied
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	if _, err := sdk.AccAddressFromBech32(gs.Owner); err != nil {
		return fmt.Errorf("invalid owner address: %w", err)
	}

	if _, err := sdk.AccAddressFromBech32(gs.Router); err != nil {
		return fmt.Errorf("invalid router address: %w", err)
	}

	if err := gs.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var occupied uint16
	for _, reg := range gs.Tokens {
		if reg.Token == (common.Address{}) {
			return fmt.Errorf("invalid token registration: %w", ErrAddressZero)
		}
		if reg.Position >= MaxLanes {
			return fmt.Errorf("invalid token registration %s: %w", reg.Token, ErrInvalidPosition)
		}
		if occupied&(1<<reg.Position) != 0 {
			return fmt.Errorf("duplicate position %d: %w", reg.Position, ErrTokenAlreadyRegistered)
		}
		if gs.RegisteredPositions&(1<<reg.Position) == 0 {
			return fmt.Errorf("token %s at unoccupied position %d: %w", reg.Token, reg.Position, ErrInvalidPosition)
		}
		occupied |= 1 << reg.Position
	}

	bitmap, err := UintToBitmap(gs.CurrentRates)
	if err != nil {
		return fmt.Errorf("invalid current rates: %w", err)
	}
	if err := ValidateBitmap(bitmap); err != nil {
		return fmt.Errorf("invalid current rates: %w", err)
	}

	seen := make(map[common.Hash]struct{}, len(gs.PendingRequests))
	for _, req := range gs.PendingRequests {
		if _, ok := seen[req.RequestID]; ok {
			return fmt.Errorf("duplicate pending request %s: %w", req.RequestID, ErrRequestAlreadyOpen)
		}
		seen[req.RequestID] = struct{}{}
	}

	for i, snap := range gs.History {
		bitmap, err := snap.Bitmap()
		if err != nil {
			return fmt.Errorf("invalid snapshot %d: %w", i, err)
		}
		if err := ValidateBitmap(bitmap); err != nil {
			return fmt.Errorf("invalid snapshot %d: %w", i, err)
		}
	}

	return nil
}
