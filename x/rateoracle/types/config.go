package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultSubscriptionID = 1
	DefaultGasLimit       = 300000
	DefaultDonID          = "fun-ethereum-mainnet-1"

	// DefaultSource asks the DON for the two-metric layout served by the APY endpoint.
	DefaultSource = `{"url":"http://127.0.0.1:8545/apy","layout":"split","upper":"lidoApyBasisPoints","lower":"usdyApyBasisPoints"}`
)

// OracleConfig is the admin-controlled request configuration.
type OracleConfig struct {
	SubscriptionID uint64      `json:"subscription_id" yaml:"subscription_id"`
	Source         string      `json:"source" yaml:"source"`
	DonID          common.Hash `json:"don_id" yaml:"don_id"`
	GasLimit       uint32      `json:"gas_limit" yaml:"gas_limit"`
	Paused         bool        `json:"paused" yaml:"paused"`
}

// DefaultOracleConfig returns the configuration used by a fresh genesis.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		SubscriptionID: DefaultSubscriptionID,
		Source:         DefaultSource,
		DonID:          DonIDFromString(DefaultDonID),
		GasLimit:       DefaultGasLimit,
		Paused:         false,
	}
}

// Validate checks the same rules the admin setters enforce.
func (c OracleConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	if c.SubscriptionID == 0 {
		return fmt.Errorf("subscription id cannot be zero")
	}
	if c.DonID == (common.Hash{}) {
		return fmt.Errorf("don id cannot be zero")
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("gas limit cannot be zero")
	}

	return nil
}

// DonIDFromString right-pads a human readable DON name into a bytes32 id.
func DonIDFromString(name string) common.Hash {
	var id common.Hash
	copy(id[:], name)
	return id
}

// SecretsRef points at secrets hosted by the DON.
type SecretsRef struct {
	SlotID  uint8  `json:"slot_id" yaml:"slot_id"`
	Version uint64 `json:"version" yaml:"version"`
}

func (s SecretsRef) String() string {
	return fmt.Sprintf("slot=%d version=%d", s.SlotID, s.Version)
}
