package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/liveview/metadata"
	"github.com/tranvictor/liveview/token"
)

// ErrNoAddresses rejects an empty subscription request before any network
// round trip happens.
var ErrNoAddresses = errors.New("no addresses provided")

type State int32

const (
	StateIdle State = iota
	StateValidating
	StateSubscribed
	StateStreaming
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Response is the enriched transfer message streamed to the client.
type Response struct {
	ConnectionID    string    `json:"connectionId"`
	ContractAddress string    `json:"contractAddress"`
	Name            string    `json:"name"`
	Symbol          string    `json:"symbol"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	TokenID         string    `json:"tokenId"`
	Image           string    `json:"image,omitempty"`
	ImageKind       string    `json:"imageKind,omitempty"`
	BlockNumber     uint64    `json:"blockNumber"`
	TransactionHash string    `json:"transactionHash"`
	Timestamp       time.Time `json:"timestamp"`
}

// Backend is the read-only slice of a chain backend a session uses.
// *ethclient.Client satisfies it.
type Backend interface {
	token.ContractCaller
	token.LogSubscriber
}

// Session drives one connection's subscription through
// idle -> validating -> subscribed -> streaming -> terminated. Sessions
// share nothing mutable: the backend handle is read-only and the
// descriptor cache is private to the session.
type Session struct {
	id        string
	backend   Backend
	multicall ethcommon.Address
	resolver  *metadata.Resolver
	out       chan<- Response
	logger    *slog.Logger

	state       atomic.Int32
	descriptors map[ethcommon.Address]token.Descriptor

	done       chan struct{}
	cancelOnce sync.Once
}

func New(
	id string,
	backend Backend,
	multicall ethcommon.Address,
	resolver *metadata.Resolver,
	out chan<- Response,
	logger *slog.Logger,
) *Session {
	return &Session{
		id:        id,
		backend:   backend,
		multicall: multicall,
		resolver:  resolver,
		out:       out,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// Cancel requests termination of the streaming loop. It is idempotent and
// monotonic: once cancelled a session never resumes.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() { close(s.done) })
}

// Subscribe validates the requested addresses with one batched call and
// opens the live transfer stream. The streaming goroutine is spawned only
// after both steps succeed, so a rejected request costs no concurrency.
//
// addresses must already be deduplicated in a stable order; that order is
// the batching order and descriptors are cached under it.
func (s *Session) Subscribe(ctx context.Context, addresses []ethcommon.Address) error {
	if s.State() != StateIdle {
		return fmt.Errorf("session %s already started", s.id)
	}
	if len(addresses) == 0 {
		s.setState(StateTerminated)
		return ErrNoAddresses
	}

	s.setState(StateValidating)
	descriptors, err := token.ValidateAndDescribe(ctx, s.backend, s.multicall, addresses)
	if err != nil {
		s.setState(StateTerminated)
		return err
	}
	s.descriptors = descriptors

	s.setState(StateSubscribed)
	stream, err := token.SubscribeTransfers(ctx, s.backend, addresses, s.logger)
	if err != nil {
		s.setState(StateTerminated)
		return err
	}

	s.setState(StateStreaming)
	go s.stream(stream)
	return nil
}

func (s *Session) stream(stream *token.TransferStream) {
	defer s.setState(StateTerminated)
	defer stream.Unsubscribe()

	for {
		// Cancellation wins over pending events on every iteration so a
		// sustained high-rate stream can't starve disconnect handling.
		select {
		case <-s.done:
			return
		default:
		}

		select {
		case <-s.done:
			return
		case ev, ok := <-stream.C:
			if !ok {
				s.logger.Debug("transfer stream closed", "session", s.id)
				return
			}
			s.handleTransfer(ev)
		}
	}
}

func (s *Session) handleTransfer(ev token.RawTransfer) {
	// An event pulled from the stream in the same instant the session was
	// cancelled must not reach the client.
	select {
	case <-s.done:
		return
	default:
	}

	desc, found := s.descriptors[ev.Contract]
	if !found {
		// The subscription filter is built from validated addresses only,
		// so this is an internal inconsistency; skip the event rather
		// than kill an otherwise healthy session.
		s.logger.Error("transfer from contract with no cached descriptor",
			"session", s.id,
			"contract", ev.Contract.Hex(),
			"tx", ev.TxHash.Hex(),
		)
		return
	}

	resp := Response{
		ConnectionID:    s.id,
		ContractAddress: desc.Address.Hex(),
		Name:            desc.Name,
		Symbol:          desc.Symbol,
		From:            ev.From.Hex(),
		To:              ev.To.Hex(),
		TokenID:         ev.TokenID.String(),
		BlockNumber:     ev.BlockNumber,
		TransactionHash: ev.TxHash.Hex(),
		Timestamp:       time.Now().UTC(),
	}
	if image, kind, ok := s.resolveImage(ev); ok {
		resp.Image = image
		resp.ImageKind = string(kind)
	}

	// Image resolution may have taken up to its timeout; re-check
	// cancellation before anything reaches the outbound channel.
	select {
	case <-s.done:
		return
	default:
	}

	// Best-effort delivery: a slow client drops this one message instead
	// of stalling the upstream subscription.
	select {
	case s.out <- resp:
	default:
		s.logger.Warn("outbound channel full, dropping event",
			"session", s.id,
			"tx", ev.TxHash.Hex(),
		)
	}
}

func (s *Session) resolveImage(ev token.RawTransfer) (string, metadata.Kind, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.resolver.Timeout())
	defer cancel()

	uri, err := token.TokenURI(ctx, s.backend, ev.Contract, ev.TokenID)
	if err != nil {
		s.logger.Debug("tokenURI read failed",
			"session", s.id,
			"contract", ev.Contract.Hex(),
			"token_id", ev.TokenID.String(),
			"error", err,
		)
		return "", "", false
	}
	return s.resolver.ResolveImage(ctx, uri)
}
