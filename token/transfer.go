package token

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransferEventTopic is the canonical Transfer(address,address,uint256)
// signature hash, shared by ERC20 and ERC721.
var TransferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

type RawTransfer struct {
	Contract    common.Address
	From        common.Address
	To          common.Address
	TokenID     *big.Int
	BlockNumber uint64
	TxHash      common.Hash
}

// DecodeTransfer turns one raw log entry into a RawTransfer. An NFT
// transfer carries the token id as the third indexed topic, so exactly
// four topics are required; this also filters out ERC20 transfers, which
// share the same topic0 but put the amount in the data section.
func DecodeTransfer(log types.Log) (RawTransfer, error) {
	if len(log.Topics) != 4 {
		return RawTransfer{}, fmt.Errorf("expected 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != TransferEventTopic {
		return RawTransfer{}, fmt.Errorf("unexpected topic0 %s", log.Topics[0].Hex())
	}
	return RawTransfer{
		Contract:    log.Address,
		From:        common.BytesToAddress(log.Topics[1].Bytes()),
		To:          common.BytesToAddress(log.Topics[2].Bytes()),
		TokenID:     new(big.Int).SetBytes(log.Topics[3].Bytes()),
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
	}, nil
}
