package dex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"spreadSpy/internal/model"
)

// ContractCaller is the subset of the chain client used for eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// PairReader reads state from Uniswap V2 compatible pair contracts.
type PairReader struct {
	caller ContractCaller
	now    func() time.Time
}

func NewPairReader(caller ContractCaller) *PairReader {
	return &PairReader{caller: caller, now: time.Now}
}

// FetchReserves returns the pair reserves at the latest block.
// Every failure is reported as *model.RetrievalError.
func (r *PairReader) FetchReserves(ctx context.Context, pool model.PoolRef) (model.ReserveSnapshot, error) {
	snapshot, err := r.fetchReserves(ctx, pool)
	if err != nil {
		return model.ReserveSnapshot{}, &model.RetrievalError{Pool: pool, Err: err}
	}
	return snapshot, nil
}

func (r *PairReader) fetchReserves(ctx context.Context, pool model.PoolRef) (model.ReserveSnapshot, error) {
	if r.caller == nil {
		return model.ReserveSnapshot{}, fmt.Errorf("chain client is nil")
	}

	pairABI, err := V2PairABI()
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := callPairMethod(ctx, r.caller, pool.Address, pairABI, "getReserves")
	if err != nil {
		return model.ReserveSnapshot{}, err
	}
	if len(values) != 3 {
		return model.ReserveSnapshot{}, fmt.Errorf("getReserves return size %d", len(values))
	}

	reserve0, err := asBigInt(values[0])
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("reserve1: %w", err)
	}
	if reserve0.Sign() < 0 || reserve1.Sign() < 0 {
		return model.ReserveSnapshot{}, fmt.Errorf("negative reserve")
	}
	blockTs, ok := values[2].(uint32)
	if !ok {
		return model.ReserveSnapshot{}, fmt.Errorf("blockTimestampLast unexpected type %T", values[2])
	}

	return model.ReserveSnapshot{
		Pool:               pool,
		Reserve0:           reserve0,
		Reserve1:           reserve1,
		BlockTimestampLast: blockTs,
		ObservedAt:         r.now().UTC(),
	}, nil
}

// Tokens returns token0 and token1 of the pair.
func (r *PairReader) Tokens(ctx context.Context, pool model.PoolRef) (common.Address, common.Address, error) {
	if r.caller == nil {
		return common.Address{}, common.Address{}, fmt.Errorf("chain client is nil")
	}

	pairABI, err := V2PairABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := callPairMethod(ctx, r.caller, pool.Address, pairABI, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callPairMethod(ctx, r.caller, pool.Address, pairABI, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	return token0, token1, nil
}

func callPairMethod(ctx context.Context, caller ContractCaller, pair common.Address, pairABI abi.ABI, method string) ([]interface{}, error) {
	data, err := pairABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &pair, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := pairABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
