package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var ArbitrumMainnet Network = NewArbitrumMainnet()

type arbitrumMainnet struct {
	*GenericNetwork
}

func NewArbitrumMainnet() *arbitrumMainnet {
	return &arbitrumMainnet{
		GenericNetwork: NewGenericNetwork(GenericNetworkConfig{
			Name:               "arbitrum",
			AlternativeNames:   []string{"Arbitrum", "arb"},
			ChainID:            42161,
			NativeTokenSymbol:  "ETH",
			NativeTokenDecimal: 18,
			BlockTime:          1,
			NodeVariableName:   "ARBITRUM_MAINNET_NODE",
			DefaultNodes: map[string]string{
				"arbitrum-publicnode": "wss://arbitrum-one-rpc.publicnode.com",
			},
			MultiCallContractAddress: common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		}),
	}
}
