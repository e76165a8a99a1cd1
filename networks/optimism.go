package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var OptimismMainnet Network = NewOptimismMainnet()

type optimismMainnet struct {
	*GenericNetwork
}

func NewOptimismMainnet() *optimismMainnet {
	return &optimismMainnet{
		GenericNetwork: NewGenericNetwork(GenericNetworkConfig{
			Name:               "optimism",
			AlternativeNames:   []string{"Optimism", "op"},
			ChainID:            10,
			NativeTokenSymbol:  "ETH",
			NativeTokenDecimal: 18,
			BlockTime:          2,
			NodeVariableName:   "OPTIMISM_MAINNET_NODE",
			DefaultNodes: map[string]string{
				"optimism-publicnode": "wss://optimism-rpc.publicnode.com",
			},
			MultiCallContractAddress: common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		}),
	}
}
