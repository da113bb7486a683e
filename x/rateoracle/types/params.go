package types

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultMinUpdateInterval is the minimum time between two successful updates.
	DefaultMinUpdateInterval = time.Hour

	// MaxMinUpdateInterval bounds the configurable interval.
	MaxMinUpdateInterval = 365 * 24 * time.Hour
)

// Params defines the rateoracle module parameters.
type Params struct {
	// MinUpdateInterval is expressed in seconds of block time.
	MinUpdateInterval uint64 `json:"min_update_interval" yaml:"min_update_interval"`
	// HistoryEnabled appends a snapshot on every successful fulfillment.
	HistoryEnabled bool `json:"history_enabled" yaml:"history_enabled"`
}

// DefaultParams returns default rateoracle module parameters
func DefaultParams() Params {
	return Params{
		MinUpdateInterval: uint64(DefaultMinUpdateInterval / time.Second),
		HistoryEnabled:    true,
	}
}

// Validate performs basic validation on rateoracle parameters
func (p Params) Validate() error {
	if p.MinUpdateInterval == 0 {
		return fmt.Errorf("min update interval cannot be zero")
	}
	if p.MinUpdateInterval > uint64(MaxMinUpdateInterval/time.Second) {
		return fmt.Errorf("min update interval %ds exceeds %s", p.MinUpdateInterval, MaxMinUpdateInterval)
	}

	return nil
}

// NextUpdate returns the first block time at which an update is allowed after
// lastUpdate, saturating at the largest timestamp.
func (p Params) NextUpdate(lastUpdate uint64) uint64 {
	if lastUpdate > math.MaxUint64-p.MinUpdateInterval {
		return math.MaxUint64
	}
	return lastUpdate + p.MinUpdateInterval
}

// UpdateAllowed reports whether an update may be requested at now.
func (p Params) UpdateAllowed(lastUpdate, now uint64) bool {
	return now >= lastUpdate && now-lastUpdate >= p.MinUpdateInterval
}
