package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AddressRecoverer recovers the signing address of a submitted signature
// over the server-controlled challenge.
type AddressRecoverer interface {
	Recover(signature string) (common.Address, error)
}

// BalanceClient performs the read-only on-chain balance query.
type BalanceClient interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
}

// InviteIssuer mints single-use invite credentials for the gated chat, and
// revokes ones the engine ends up not handing out.
type InviteIssuer interface {
	IssueSingleUseInvite(ctx context.Context) (string, error)
	RevokeInvite(ctx context.Context, link string) error
}
