package networks

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Network interface {
	GetName() string
	// GetAlternativeNames returns other identifiers clients may use for
	// this network in subscription requests, e.g. "Polygon" for matic.
	GetAlternativeNames() []string
	GetChainID() uint64
	GetNativeTokenSymbol() string
	GetNativeTokenDecimal() uint64
	GetBlockTime() time.Duration

	GetNodeVariableName() string
	GetDefaultNodes() map[string]string

	MultiCallContract() common.Address
}
