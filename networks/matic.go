package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var Matic Network = NewMatic()

type matic struct {
	*GenericNetwork
}

func NewMatic() *matic {
	return &matic{
		GenericNetwork: NewGenericNetwork(GenericNetworkConfig{
			Name:               "polygon",
			AlternativeNames:   []string{"Polygon", "matic"},
			ChainID:            137,
			NativeTokenSymbol:  "POL",
			NativeTokenDecimal: 18,
			BlockTime:          2,
			NodeVariableName:   "POLYGON_MAINNET_NODE",
			DefaultNodes: map[string]string{
				"polygon-publicnode": "wss://polygon-bor-rpc.publicnode.com",
			},
			MultiCallContractAddress: common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		}),
	}
}
