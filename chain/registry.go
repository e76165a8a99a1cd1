package chain

import (
	"context"
	"fmt"
	"log/slog"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/liveview/config"
	"github.com/tranvictor/liveview/networks"
)

// Registry holds one Backend per supported network for the process
// lifetime. It is read-only after NewRegistry returns.
type Registry struct {
	backends map[string]*Backend
}

// NewRegistry dials every supported network once. A network that can't be
// dialed fails startup: a half-populated registry would turn chain
// selection into a runtime surprise.
func NewRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	backends := map[string]*Backend{}
	for _, network := range networks.GetSupportedNetworks() {
		nodeURL := cfg.NodeURL(network)
		if nodeURL == "" {
			return nil, fmt.Errorf("no node url configured for network %s", network.GetName())
		}

		multicall := network.MultiCallContract()
		if override := cfg.MulticallAddress(network); override != "" {
			if !ethcommon.IsHexAddress(override) {
				return nil, fmt.Errorf("invalid multicall address %q for network %s", override, network.GetName())
			}
			multicall = ethcommon.HexToAddress(override)
		}

		backend, err := DialBackend(ctx, network, nodeURL, multicall)
		if err != nil {
			return nil, err
		}
		backends[network.GetName()] = backend

		logger.Info("chain backend ready",
			"network", network.GetName(),
			"chain_id", network.GetChainID(),
			"multicall", multicall.Hex(),
		)
	}
	return &Registry{backends: backends}, nil
}

// Get resolves a request-time chain identifier (name or alternative name,
// any case) to its backend.
func (r *Registry) Get(chain string) (*Backend, error) {
	network, err := networks.GetNetwork(chain)
	if err != nil {
		return nil, err
	}
	backend, found := r.backends[network.GetName()]
	if !found {
		return nil, fmt.Errorf("no backend for network %s", network.GetName())
	}
	return backend, nil
}

func (r *Registry) Close() {
	for _, b := range r.backends {
		b.Close()
	}
}
