package ethbalance

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	lastMsg ethereum.CallMsg
	out     []byte
	err     error
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastMsg = msg
	return f.out, f.err
}

var (
	contract = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	owner    = common.HexToAddress("0x00000000000000000000000000000000DeaDBeef")
)

func TestBalanceOfEncoding(t *testing.T) {
	caller := &fakeCaller{out: common.LeftPadBytes(big.NewInt(150).Bytes(), 32)}
	svc := NewService(caller, contract, time.Second)

	bal, err := svc.BalanceOf(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(150), bal.Int64())

	require.NotNil(t, caller.lastMsg.To)
	assert.Equal(t, contract, *caller.lastMsg.To)

	want := append([]byte{0x70, 0xa0, 0x82, 0x31}, common.LeftPadBytes(owner.Bytes(), 32)...)
	assert.Equal(t, want, caller.lastMsg.Data, "call data is selector plus padded owner")
}

func TestBalanceOfLargeValue(t *testing.T) {
	huge, ok := new(big.Int).SetString("1000000000000000000000000", 10)
	require.True(t, ok)

	caller := &fakeCaller{out: common.LeftPadBytes(huge.Bytes(), 32)}
	svc := NewService(caller, contract, time.Second)

	bal, err := svc.BalanceOf(context.Background(), owner)
	require.NoError(t, err)
	assert.Zero(t, bal.Cmp(huge))
}

func TestBalanceOfTransportFailure(t *testing.T) {
	caller := &fakeCaller{err: errors.New("connection refused")}
	svc := NewService(caller, contract, time.Second)

	_, err := svc.BalanceOf(context.Background(), owner)
	assert.ErrorIs(t, err, ErrRPCUnavailable)
}

func TestBalanceOfTimeout(t *testing.T) {
	caller := &fakeCaller{err: context.DeadlineExceeded}
	svc := NewService(caller, contract, time.Second)

	_, err := svc.BalanceOf(context.Background(), owner)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBalanceOfDecodeFailure(t *testing.T) {
	cases := map[string][]byte{
		"empty":     {},
		"too short": common.LeftPadBytes(big.NewInt(1).Bytes(), 16),
		"too long":  make([]byte, 64),
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeCaller{out: out}, contract, time.Second)
			_, err := svc.BalanceOf(context.Background(), owner)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}
