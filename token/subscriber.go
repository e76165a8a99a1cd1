package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrSubscribeFailed marks a log subscription that could not be opened.
var ErrSubscribeFailed = errors.New("couldn't open transfer log subscription")

// LogSubscriber is the subscription capability of a chain backend.
// *ethclient.Client satisfies it.
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// TransferStream is a live, non-restartable sequence of decoded transfer
// events. C is closed when the upstream subscription terminates; after
// that a fresh SubscribeTransfers call is needed.
type TransferStream struct {
	C   <-chan RawTransfer
	sub ethereum.Subscription
}

func (ts *TransferStream) Unsubscribe() {
	ts.sub.Unsubscribe()
}

// SubscribeTransfers opens a live log subscription filtered to the given
// contract addresses and the Transfer topic. Individual logs that fail to
// decode are logged and skipped; they never terminate the stream.
func SubscribeTransfers(
	ctx context.Context,
	subscriber LogSubscriber,
	addresses []common.Address,
	logger *slog.Logger,
) (*TransferStream, error) {
	logs := make(chan types.Log, 64)
	query := ethereum.FilterQuery{
		Addresses: addresses,
		Topics:    [][]common.Hash{{TransferEventTopic}},
	}
	sub, err := subscriber.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubscribeFailed, err)
	}

	out := make(chan RawTransfer, 64)
	go func() {
		defer close(out)
		for {
			select {
			case err := <-sub.Err():
				if err != nil {
					logger.Warn("transfer subscription closed", "error", err)
				}
				return
			case lg := <-logs:
				ev, err := DecodeTransfer(lg)
				if err != nil {
					logger.Warn("skipping undecodable log",
						"contract", lg.Address.Hex(),
						"tx", lg.TxHash.Hex(),
						"error", err,
					)
					continue
				}
				// The consumer may have stopped reading; a plain send
				// would park this goroutine past Unsubscribe forever.
				select {
				case out <- ev:
				case err := <-sub.Err():
					if err != nil {
						logger.Warn("transfer subscription closed", "error", err)
					}
					return
				}
			}
		}
	}()
	return &TransferStream{C: out, sub: sub}, nil
}
