package networks

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var EthereumMainnet Network = NewEthereumMainnet()

type ethereumMainnet struct{}

func NewEthereumMainnet() *ethereumMainnet {
	return &ethereumMainnet{}
}

func (self *ethereumMainnet) GetName() string {
	return "mainnet"
}

func (self *ethereumMainnet) GetAlternativeNames() []string {
	return []string{"Mainnet", "ethereum", "eth"}
}

func (self *ethereumMainnet) GetChainID() uint64 {
	return 1
}

func (self *ethereumMainnet) GetNativeTokenSymbol() string {
	return "ETH"
}

func (self *ethereumMainnet) GetNativeTokenDecimal() uint64 {
	return 18
}

func (self *ethereumMainnet) GetBlockTime() time.Duration {
	return 12 * time.Second
}

func (self *ethereumMainnet) GetNodeVariableName() string {
	return "ETHEREUM_MAINNET_NODE"
}

func (self *ethereumMainnet) GetDefaultNodes() map[string]string {
	return map[string]string{
		"mainnet-publicnode": "wss://ethereum-rpc.publicnode.com",
	}
}

func (self *ethereumMainnet) MultiCallContract() common.Address {
	return common.HexToAddress("0xeefba1e63905ef1d7acba5a8513c70307c1ce441")
}
