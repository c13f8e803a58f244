package model

import "github.com/ethereum/go-ethereum/common"

// PoolRef identifies one monitored pair contract.
type PoolRef struct {
	Label   string
	Address common.Address
}

func (p PoolRef) String() string {
	return p.Label + ":" + p.Address.Hex()
}
