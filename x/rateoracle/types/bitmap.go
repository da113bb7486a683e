package types

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
)

const (
	// MaxRateBps is the largest accepted rate, 100% in basis points.
	MaxRateBps = 10000

	// MaxLanes is the number of 16-bit lanes in a rate bitmap.
	MaxLanes = 16

	// LaneBits is the width of a single lane.
	LaneBits = 16

	// ResponseSize is the width of an encoded fulfillment response.
	ResponseSize = 32
)

var laneMask = uint256.NewInt(0xffff)

// PackRates packs up to MaxLanes rates into a bitmap. rates[i] occupies bits
// [i*16, i*16+16), so the first rate sits in the least significant lane.
func PackRates(rates []uint16) (*uint256.Int, error) {
	if len(rates) > MaxLanes {
		return nil, errorsmod.Wrapf(ErrTooManyRates, "got %d, max %d", len(rates), MaxLanes)
	}

	bitmap := new(uint256.Int)
	for i, rate := range rates {
		if rate > MaxRateBps {
			return nil, errorsmod.Wrapf(ErrRateOutOfRange, "rate %d at position %d", rate, i)
		}
		lane := new(uint256.Int).Lsh(uint256.NewInt(uint64(rate)), uint(i*LaneBits))
		bitmap.Or(bitmap, lane)
	}

	return bitmap, nil
}

// UnpackLane extracts the 16-bit value stored at position.
func UnpackLane(bitmap *uint256.Int, position uint8) (uint16, error) {
	if position >= MaxLanes {
		return 0, errorsmod.Wrapf(ErrInvalidPosition, "position %d", position)
	}
	if bitmap == nil {
		return 0, nil
	}

	lane := new(uint256.Int).Rsh(bitmap, uint(position)*LaneBits)
	lane.And(lane, laneMask)
	return uint16(lane.Uint64()), nil
}

// UnpackAll returns every lane of bitmap.
func UnpackAll(bitmap *uint256.Int) [MaxLanes]uint16 {
	var lanes [MaxLanes]uint16
	for i := uint8(0); i < MaxLanes; i++ {
		lanes[i], _ = UnpackLane(bitmap, i)
	}
	return lanes
}

// ValidateBitmap checks that no lane exceeds MaxRateBps.
func ValidateBitmap(bitmap *uint256.Int) error {
	for i, rate := range UnpackAll(bitmap) {
		if rate > MaxRateBps {
			return errorsmod.Wrapf(ErrRateOutOfRange, "rate %d at position %d", rate, i)
		}
	}
	return nil
}

// PackSplit packs the two-metric layout: upper<<16 | lower.
func PackSplit(upper, lower uint16) (*uint256.Int, error) {
	return PackRates([]uint16{lower, upper})
}

// SplitRates reads the two-metric layout back as (upper, lower).
func SplitRates(bitmap *uint256.Int) (upper, lower uint16) {
	lower, _ = UnpackLane(bitmap, 0)
	upper, _ = UnpackLane(bitmap, 1)
	return upper, lower
}

// DecodeResponse decodes a fulfillment payload: one 32-byte big-endian word.
func DecodeResponse(response []byte) (*uint256.Int, error) {
	if len(response) != ResponseSize {
		return nil, errorsmod.Wrapf(ErrInvalidResponse, "expected %d bytes, got %d", ResponseSize, len(response))
	}
	return new(uint256.Int).SetBytes(response), nil
}

// EncodeResponse is the inverse of DecodeResponse.
func EncodeResponse(bitmap *uint256.Int) []byte {
	word := bitmap.Bytes32()
	return word[:]
}

// BitmapToUint converts a bitmap to its JSON friendly representation.
func BitmapToUint(bitmap *uint256.Int) sdkmath.Uint {
	if bitmap == nil {
		return sdkmath.ZeroUint()
	}
	return sdkmath.NewUintFromBigInt(bitmap.ToBig())
}

// UintToBitmap converts a decimal Uint back into a bitmap.
func UintToBitmap(u sdkmath.Uint) (*uint256.Int, error) {
	bitmap, overflow := uint256.FromBig(u.BigInt())
	if overflow {
		return nil, errorsmod.Wrapf(ErrInvalidRates, "bitmap %s overflows 256 bits", u)
	}
	return bitmap, nil
}

// ParseBitmap parses a decimal or 0x-prefixed hexadecimal bitmap.
func ParseBitmap(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok || b.Sign() < 0 {
		return nil, errorsmod.Wrapf(ErrInvalidRates, "cannot parse bitmap %q", s)
	}
	bitmap, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errorsmod.Wrapf(ErrInvalidRates, "bitmap %q overflows 256 bits", s)
	}
	return bitmap, nil
}
