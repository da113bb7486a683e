package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// ModuleName defines the module name
	ModuleName = "rateoracle"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// MemStoreKey defines the in-memory store key
	MemStoreKey = "mem_rateoracle"
)

// KV Store key prefix bytes
const (
	prefixParams = iota + 1
	prefixOwner
	prefixRouter
	prefixConfig
	prefixTokenPosition
	prefixRegisteredPositions
	prefixCurrentRates
	prefixLastUpdate
	prefixPendingRequest
	prefixHistoryLength
	prefixHistory
	prefixHistoryTimestamp
	prefixDispatchLock
)

// KV Store key prefixes
var (
	KeyParams              = []byte{prefixParams}
	KeyOwner               = []byte{prefixOwner}
	KeyRouter              = []byte{prefixRouter}
	KeyConfig              = []byte{prefixConfig}
	KeyTokenPosition       = []byte{prefixTokenPosition}
	KeyRegisteredPositions = []byte{prefixRegisteredPositions}
	KeyCurrentRates        = []byte{prefixCurrentRates}
	KeyLastUpdate          = []byte{prefixLastUpdate}
	KeyPendingRequest      = []byte{prefixPendingRequest}
	KeyHistoryLength       = []byte{prefixHistoryLength}
	KeyHistory             = []byte{prefixHistory}
	KeyHistoryTimestamp    = []byte{prefixHistoryTimestamp}
	KeyDispatchLock        = []byte{prefixDispatchLock}
)

func Uint64ToBytes(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}

func BytesToUint64(bz []byte) uint64 {
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

// GetTokenPositionKey returns the key for a token's lane assignment
func GetTokenPositionKey(token common.Address) []byte {
	return append(KeyTokenPosition, token.Bytes()...)
}

// ParseTokenPositionKey returns the token address encoded in a token position key
func ParseTokenPositionKey(key []byte) (common.Address, error) {
	if len(key) != 1+common.AddressLength {
		return common.Address{}, fmt.Errorf("invalid token position key length: %d", len(key))
	}
	return common.BytesToAddress(key[1:]), nil
}

// GetPendingRequestKey returns the key for an open request
func GetPendingRequestKey(id common.Hash) []byte {
	return append(KeyPendingRequest, id.Bytes()...)
}

// ParsePendingRequestKey returns the request id encoded in a pending request key
func ParsePendingRequestKey(key []byte) (common.Hash, error) {
	if len(key) != 1+common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid pending request key length: %d", len(key))
	}
	return common.BytesToHash(key[1:]), nil
}

// GetHistoryKey returns the key for the snapshot stored at index
func GetHistoryKey(index uint64) []byte {
	return append(KeyHistory, Uint64ToBytes(index)...)
}

// GetHistoryTimestampKey returns the key mapping a snapshot timestamp to its index
func GetHistoryTimestampKey(timestamp uint64) []byte {
	return append(KeyHistoryTimestamp, Uint64ToBytes(timestamp)...)
}
