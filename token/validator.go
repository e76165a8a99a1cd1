package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	liveviewcommon "github.com/tranvictor/liveview/common"
)

// ErrTransport marks a failure of the batched call itself as opposed to a
// rejected address. Callers surface the two differently.
var ErrTransport = errors.New("batched contract call failed")

// AddressInvalidError rejects one address that failed the interface probe
// or whose name/symbol couldn't be decoded. Validation is all-or-nothing:
// one invalid address fails the whole request.
type AddressInvalidError struct {
	Address common.Address
}

func (e *AddressInvalidError) Error() string {
	return fmt.Sprintf("address %s is not a valid token contract", e.Address.Hex())
}

// ContractCaller is the read-only client capability the validator needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type aggregateCall struct {
	Target   common.Address
	CallData []byte
}

type aggregateResult struct {
	BlockNumber *big.Int
	ReturnData  [][]byte
}

// ValidateAndDescribe checks that every address supports the ERC721
// interface and fetches its name and symbol, packing all three reads per
// address into a single multicall aggregate so the network round trip
// count stays at one regardless of how many addresses are requested.
//
// addresses must be non-empty and deduplicated; the submission order of
// the packed calls follows the input order and results are decoded in
// fixed groups of three in the same order.
func ValidateAndDescribe(
	ctx context.Context,
	caller ContractCaller,
	multicall common.Address,
	addresses []common.Address,
) (map[common.Address]Descriptor, error) {
	erc721 := liveviewcommon.GetERC721ABI()
	mcABI := liveviewcommon.GetMultiCallABI()

	calls := make([]aggregateCall, 0, len(addresses)*3)
	for _, addr := range addresses {
		probeData, err := erc721.Pack("supportsInterface", liveviewcommon.ERC721InterfaceID)
		if err != nil {
			return nil, fmt.Errorf("packing supportsInterface call: %w", err)
		}
		nameData, err := erc721.Pack("name")
		if err != nil {
			return nil, fmt.Errorf("packing name call: %w", err)
		}
		symbolData, err := erc721.Pack("symbol")
		if err != nil {
			return nil, fmt.Errorf("packing symbol call: %w", err)
		}
		calls = append(calls,
			aggregateCall{addr, probeData},
			aggregateCall{addr, nameData},
			aggregateCall{addr, symbolData},
		)
	}

	data, err := mcABI.Pack("aggregate", calls)
	if err != nil {
		return nil, fmt.Errorf("packing aggregate call: %w", err)
	}

	output, err := caller.CallContract(ctx, ethereum.CallMsg{To: &multicall, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransport, err)
	}

	res := aggregateResult{}
	if err = mcABI.UnpackIntoInterface(&res, "aggregate", output); err != nil {
		return nil, fmt.Errorf("%w: unpacking aggregate result: %s", ErrTransport, err)
	}
	if len(res.ReturnData) != len(calls) {
		return nil, fmt.Errorf("%w: aggregate returned %d results for %d calls",
			ErrTransport, len(res.ReturnData), len(calls))
	}

	descriptors := map[common.Address]Descriptor{}
	for i, addr := range addresses {
		var supported bool
		if err = erc721.UnpackIntoInterface(&supported, "supportsInterface", res.ReturnData[i*3]); err != nil || !supported {
			return nil, &AddressInvalidError{addr}
		}
		var name string
		if err = erc721.UnpackIntoInterface(&name, "name", res.ReturnData[i*3+1]); err != nil {
			return nil, &AddressInvalidError{addr}
		}
		var symbol string
		if err = erc721.UnpackIntoInterface(&symbol, "symbol", res.ReturnData[i*3+2]); err != nil {
			return nil, &AddressInvalidError{addr}
		}
		descriptors[addr] = Descriptor{
			Address: addr,
			Name:    name,
			Symbol:  symbol,
		}
	}
	return descriptors, nil
}
