package model

import "time"

// CycleReport is the record emitted for every poll cycle.
type CycleReport struct {
	Timestamp     time.Time `json:"ts"`
	Cycle         uint64    `json:"cycle"`
	Outcome       string    `json:"outcome"`
	PoolA         string    `json:"pool_a"`
	PoolB         string    `json:"pool_b"`
	PriceA        string    `json:"price_a,omitempty"`
	PriceB        string    `json:"price_b,omitempty"`
	SpreadPercent string    `json:"spread_percent,omitempty"`
	Direction     string    `json:"direction,omitempty"`
	Threshold     string    `json:"threshold_percent"`
	ReservesA     *Reserves `json:"reserves_a,omitempty"`
	ReservesB     *Reserves `json:"reserves_b,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Reserves holds decimal-scaled reserve amounts for display.
type Reserves struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}
