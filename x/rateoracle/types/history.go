package types

import (
	"encoding/binary"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
)

const snapshotSize = ResponseSize + 8

// RateSnapshot is an immutable record of the rates at a given block time.
type RateSnapshot struct {
	Rates     sdkmath.Uint `json:"rates" yaml:"rates"`
	Timestamp uint64       `json:"timestamp" yaml:"timestamp"`
}

func NewRateSnapshot(bitmap *uint256.Int, timestamp uint64) RateSnapshot {
	return RateSnapshot{
		Rates:     BitmapToUint(bitmap),
		Timestamp: timestamp,
	}
}

// Bitmap returns the snapshot rates as a bitmap.
func (s RateSnapshot) Bitmap() (*uint256.Int, error) {
	return UintToBitmap(s.Rates)
}

// MarshalSnapshot encodes a snapshot as the 32-byte bitmap followed by the timestamp.
func MarshalSnapshot(s RateSnapshot) ([]byte, error) {
	bitmap, err := s.Bitmap()
	if err != nil {
		return nil, err
	}

	bz := make([]byte, snapshotSize)
	word := bitmap.Bytes32()
	copy(bz, word[:])
	binary.BigEndian.PutUint64(bz[ResponseSize:], s.Timestamp)
	return bz, nil
}

func UnmarshalSnapshot(bz []byte) (RateSnapshot, error) {
	if len(bz) != snapshotSize {
		return RateSnapshot{}, fmt.Errorf("invalid snapshot length: %d", len(bz))
	}

	bitmap := new(uint256.Int).SetBytes(bz[:ResponseSize])
	return NewRateSnapshot(bitmap, binary.BigEndian.Uint64(bz[ResponseSize:])), nil
}
