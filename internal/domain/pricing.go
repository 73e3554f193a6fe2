package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	blockMinutes = 30
	// The first 90 minutes of a stay are covered by the base price.
	includedBlocks = 3
)

// Quote is the time-based portion of a stay bill.
type Quote struct {
	ElapsedMinutes int64
	Blocks         int64
	ExtraBlocks    int64
	StayCost       decimal.Decimal
}

// PriceStay computes the time-based cost of a stay between checkIn and at.
//
// Elapsed time is truncated to whole minutes, then rounded up to 30-minute
// blocks; blocks beyond the included window are billed at halfHourPrice on
// top of basePrice. A nil halfHourPrice means a flat basePrice regardless
// of duration. The evaluation timestamp is an explicit parameter, so the
// function is deterministic and monotonic non-decreasing in elapsed time.
//
// A checkIn in the future (clock skew) counts as zero elapsed minutes.
func PriceStay(checkIn, at time.Time, basePrice decimal.Decimal, halfHourPrice *decimal.Decimal) Quote {
	elapsed := at.Sub(checkIn)
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := int64(elapsed / time.Minute)

	blocks := (minutes + blockMinutes - 1) / blockMinutes
	extra := blocks - includedBlocks
	if extra < 0 {
		extra = 0
	}

	cost := basePrice
	if halfHourPrice != nil && extra > 0 {
		cost = basePrice.Add(halfHourPrice.Mul(decimal.NewFromInt(extra)))
	}

	return Quote{
		ElapsedMinutes: minutes,
		Blocks:         blocks,
		ExtraBlocks:    extra,
		StayCost:       cost,
	}
}
