package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tranvictor/liveview/networks"
)

// Backend bundles the shared client handle of one chain with its multicall
// helper contract. Backends are built once at startup and never mutated, so
// all sessions can share them without locking.
type Backend struct {
	network   networks.Network
	client    *ethclient.Client
	multicall common.Address
}

func NewBackend(network networks.Network, client *ethclient.Client, multicall common.Address) *Backend {
	return &Backend{
		network:   network,
		client:    client,
		multicall: multicall,
	}
}

func DialBackend(ctx context.Context, network networks.Network, nodeURL string, multicall common.Address) (*Backend, error) {
	client, err := rpc.DialContext(ctx, nodeURL)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to %s node %s: %w", network.GetName(), nodeURL, err)
	}
	return NewBackend(network, ethclient.NewClient(client), multicall), nil
}

func (b *Backend) Network() networks.Network {
	return b.network
}

func (b *Backend) Client() *ethclient.Client {
	return b.client
}

func (b *Backend) MultiCallContract() common.Address {
	return b.multicall
}

func (b *Backend) Close() {
	b.client.Close()
}
