package model

import (
	"math/big"
	"time"
)

// ReserveSnapshot is a single getReserves observation for a pool.
type ReserveSnapshot struct {
	Pool               PoolRef
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
	ObservedAt         time.Time
}
