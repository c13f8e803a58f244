// Package spread derives pool prices from reserves and compares them.
// All arithmetic is exact; reserves routinely exceed 64 bits.
package spread

import (
	"errors"
	"math/big"

	"spreadSpy/internal/model"
)

// Direction names the pool to buy from and the pool to sell into.
type Direction string

const (
	// DirectionAToB means pool A is cheaper: buy at A, sell at B.
	DirectionAToB Direction = "A→B"
	// DirectionBToA means pool B is cheaper or the prices are equal.
	DirectionBToA Direction = "B→A"
)

var hundred = big.NewRat(100, 1)

var (
	// ErrMissingPrice is returned when a pool has no price (reserve1 is zero).
	ErrMissingPrice = errors.New("pool price missing")
	// ErrZeroPrice is returned when the lower price is zero, which leaves
	// the relative spread undefined.
	ErrZeroPrice = errors.New("pool price is zero, spread undefined")
)

// Result is the relative difference between two pool prices.
type Result struct {
	PriceA    *big.Rat
	PriceB    *big.Rat
	Percent   *big.Rat
	Direction Direction
}

// DerivePrice returns reserve0/reserve1, or nil when reserve1 is zero
// and the pool cannot be priced.
func DerivePrice(snapshot model.ReserveSnapshot) *big.Rat {
	if snapshot.Reserve0 == nil || snapshot.Reserve1 == nil || snapshot.Reserve1.Sign() == 0 {
		return nil
	}
	return new(big.Rat).SetFrac(snapshot.Reserve0, snapshot.Reserve1)
}

// Evaluate computes |a-b| / min(a,b) * 100. It returns ErrMissingPrice
// when either price is nil and ErrZeroPrice when min(a,b) is not positive.
func Evaluate(priceA, priceB *big.Rat) (Result, error) {
	if priceA == nil || priceB == nil {
		return Result{}, ErrMissingPrice
	}

	lower := priceA
	direction := DirectionBToA
	if priceA.Cmp(priceB) < 0 {
		direction = DirectionAToB
	} else {
		lower = priceB
	}
	if lower.Sign() <= 0 {
		return Result{}, ErrZeroPrice
	}

	percent := new(big.Rat).Sub(priceA, priceB)
	percent.Abs(percent)
	percent.Quo(percent, lower)
	percent.Mul(percent, hundred)

	return Result{
		PriceA:    new(big.Rat).Set(priceA),
		PriceB:    new(big.Rat).Set(priceB),
		Percent:   percent,
		Direction: direction,
	}, nil
}

// Exceeds reports whether the spread is at or above threshold percent.
func (r Result) Exceeds(threshold *big.Rat) bool {
	if r.Percent == nil {
		return false
	}
	if threshold == nil {
		return true
	}
	return r.Percent.Cmp(threshold) >= 0
}
