package common

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ERC721InterfaceID is the ERC165 interface id a contract must answer true
// for before we treat it as an NFT collection.
var ERC721InterfaceID = [4]byte{0x80, 0xac, 0x58, 0xcd}

func GetERC721ABI() *abi.ABI {
	result, _ := abi.JSON(strings.NewReader(erc721abi))
	return &result
}

func GetMultiCallABI() *abi.ABI {
	result, _ := abi.JSON(strings.NewReader(multicallabi))
	return &result
}

func HexToAddresses(hexes []string) []common.Address {
	result := []common.Address{}
	for _, h := range hexes {
		result = append(result, common.HexToAddress(h))
	}
	return result
}

func IsAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

// DedupAddresses drops repeated addresses while keeping the first
// occurrence order. The returned order is the order used for batching and
// descriptor lookup, so it must be stable for identical inputs.
func DedupAddresses(addrs []common.Address) []common.Address {
	seen := map[common.Address]bool{}
	result := []common.Address{}
	for _, a := range addrs {
		if seen[a] {
			continue
		}
		seen[a] = true
		result = append(result, a)
	}
	return result
}
