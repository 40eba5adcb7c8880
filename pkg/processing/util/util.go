package util

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// PoolSize is the number of car slots every per car array of a packet holds.
const PoolSize = wire.MaxCars

// DriverLimit returns how many slots of the pool an update loop may visit
// when count cars are reported.
func DriverLimit(count int) int {
	return max(0, min(PoolSize, count))
}

// InPool reports whether idx addresses a slot of the driver pool.
func InPool(idx int) bool {
	return idx >= 0 && idx < PoolSize
}

// Round rounds v to places decimals, halves go to the even neighbour.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	ret, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return ret
}

// MSToSeconds converts a millisecond value of the wire into seconds.
func MSToSeconds[T ~uint16 | ~uint32 | ~int](ms T) float64 {
	return float64(ms) / 1000
}

// SplitTime combines the ms part and the minutes part of a wire time into ms.
func SplitTime(ms uint16, minutes uint8) uint32 {
	return uint32(minutes)*60_000 + uint32(ms)
}
