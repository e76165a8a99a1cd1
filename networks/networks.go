package networks

import (
	"fmt"
	"strings"
)

// The closed set of chains the service streams from. Insert more Network
// implementations here to support more chains.
var supportedNetworks = []Network{
	EthereumMainnet,
	BaseMainnet,
	ArbitrumMainnet,
	OptimismMainnet,
	Matic,
	BSCMainnet,
}

var globalSupportedNetworks = newSupportedNetworks()

var ErrNetworkNotFound = fmt.Errorf("network not found")

type networkSet struct {
	networks     map[string]Network
	networksByID map[uint64]Network
}

func (n *networkSet) getSupportedNetworkNames() []string {
	res := []string{}
	for _, nw := range supportedNetworks {
		res = append(res, nw.GetName())
	}
	return res
}

func (n *networkSet) getNetworkByID(id uint64) (Network, error) {
	res, found := n.networksByID[id]
	if !found {
		return nil, fmt.Errorf("network id %d is not supported", id)
	}
	return res, nil
}

// getNetwork looks a network up by its name or any alternative name,
// case-insensitively, so both "mainnet" and "Mainnet" resolve.
func (n *networkSet) getNetwork(name string) (Network, error) {
	res, found := n.networks[strings.ToLower(name)]
	if !found {
		return nil, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
	}
	return res, nil
}

func (n *networkSet) register(name string, network Network) {
	key := strings.ToLower(name)
	if existing, found := n.networks[key]; found && existing != network {
		panic(
			fmt.Errorf(
				"network with name or alternative name of '%s' already exists",
				name,
			),
		)
	}
	n.networks[key] = network
}

func newSupportedNetworks() *networkSet {
	result := networkSet{
		map[string]Network{},
		map[uint64]Network{},
	}
	for _, n := range supportedNetworks {
		result.register(n.GetName(), n)
		result.networksByID[n.GetChainID()] = n
		for _, an := range n.GetAlternativeNames() {
			result.register(an, n)
		}
	}
	return &result
}

func GetSupportedNetworks() []Network {
	res := []Network{}
	res = append(res, supportedNetworks...)
	return res
}

func GetNetwork(name string) (Network, error) {
	return globalSupportedNetworks.getNetwork(name)
}

func GetNetworkByID(id uint64) (Network, error) {
	return globalSupportedNetworks.getNetworkByID(id)
}

func GetSupportedNetworkNames() []string {
	return globalSupportedNetworks.getSupportedNetworkNames()
}
