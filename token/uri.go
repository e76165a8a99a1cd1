package token

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	liveviewcommon "github.com/tranvictor/liveview/common"
)

// TokenURI reads the metadata pointer of one token from its contract.
func TokenURI(
	ctx context.Context,
	caller ContractCaller,
	contract common.Address,
	tokenID *big.Int,
) (string, error) {
	erc721 := liveviewcommon.GetERC721ABI()
	data, err := erc721.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("packing tokenURI call: %w", err)
	}
	output, err := caller.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return "", fmt.Errorf("reading tokenURI of %s token %s: %w", contract.Hex(), tokenID, err)
	}
	var uri string
	if err = erc721.UnpackIntoInterface(&uri, "tokenURI", output); err != nil {
		return "", fmt.Errorf("unpacking tokenURI result: %w", err)
	}
	return uri, nil
}
