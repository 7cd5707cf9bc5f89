package ethbalance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrRPCUnavailable: transport-level failure, retryable.
	ErrRPCUnavailable = errors.New("rpc unavailable")
	// ErrTimeout: the bounded wait was exceeded, retryable.
	ErrTimeout = errors.New("balance call timed out")
	// ErrDecode: unexpected response shape. Not retryable; almost always a
	// misconfigured contract address or chain.
	ErrDecode = errors.New("unexpected balance response")
)

// Selector for balanceOf(address), shared by ERC-20 and ERC-721.
var balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}

// Service performs the read-only balanceOf eth_call against the configured
// contract. Results are never cached: the gate cares about current ownership,
// so every submission re-queries the chain.
type Service struct {
	caller   ethereum.ContractCaller
	contract common.Address
	timeout  time.Duration
}

// NewService wraps a contract caller (ethclient.Client in production) for the
// given contract. timeout bounds each call; zero picks a default.
func NewService(caller ethereum.ContractCaller, contract common.Address, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Service{caller: caller, contract: contract, timeout: timeout}
}

// BalanceOf returns the owner's balance in the asset's smallest unit.
func (s *Service) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := ethereum.CallMsg{
		To:   &s.contract,
		Data: callData(owner),
	}
	out, err := s.caller.CallContract(ctx, msg, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRPCUnavailable, err)
	}
	if len(out) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes, want 32", ErrDecode, len(out))
	}
	return new(big.Int).SetBytes(out), nil
}

// callData encodes balanceOf(owner): 4-byte selector plus the address
// left-padded to one 32-byte word.
func callData(owner common.Address) []byte {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(owner.Bytes(), 32)...)
	return data
}
