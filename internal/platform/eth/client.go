package eth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps the JSON-RPC connection to the configured chain.
type Client struct {
	*ethclient.Client
}

// Open dials the RPC endpoint and verifies the node actually serves the
// configured chain, so a misconfigured endpoint fails at startup instead of
// producing balances from the wrong network.
func Open(ctx context.Context, rpcURL string, chainID uint64) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	got, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain id probe: %w", err)
	}
	if got.Uint64() != chainID {
		ec.Close()
		return nil, fmt.Errorf("rpc endpoint serves chain %s, config expects %d", got, chainID)
	}

	return &Client{Client: ec}, nil
}
