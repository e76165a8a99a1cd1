package networks

import (
	"github.com/ethereum/go-ethereum/common"
)

var BSCMainnet Network = NewBSCMainnet()

type bscMainnet struct {
	*GenericNetwork
}

func NewBSCMainnet() *bscMainnet {
	return &bscMainnet{
		GenericNetwork: NewGenericNetwork(GenericNetworkConfig{
			Name:               "bsc",
			AlternativeNames:   []string{"Bsc", "BSC", "binance"},
			ChainID:            56,
			NativeTokenSymbol:  "BNB",
			NativeTokenDecimal: 18,
			BlockTime:          3,
			NodeVariableName:   "BSC_MAINNET_NODE",
			DefaultNodes: map[string]string{
				"bsc-publicnode": "wss://bsc-rpc.publicnode.com",
			},
			MultiCallContractAddress: common.HexToAddress("0x41263cba59eb80dc200f3e2544eda4ed6a90e76c"),
		}),
	}
}
