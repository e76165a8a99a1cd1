package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liveviewcommon "github.com/tranvictor/liveview/common"
	"github.com/tranvictor/liveview/metadata"
	"github.com/tranvictor/liveview/session"
	"github.com/tranvictor/liveview/token"
)

var (
	multicallAddr = ethcommon.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	contractAddr  = ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSubscription struct {
	errCh chan error
	once  sync.Once
}

func (f *fakeSubscription) Err() <-chan error { return f.errCh }

func (f *fakeSubscription) Unsubscribe() {
	f.once.Do(func() { close(f.errCh) })
}

// fakeBackend serves the batched validation call, the per-token tokenURI
// reads and the log subscription of one chain backend.
type fakeBackend struct {
	validation   []byte
	callErr      error
	tokenURI     []byte // nil means the tokenURI read fails
	subscribeErr error

	mu   sync.Mutex
	logs chan<- types.Log
	sub  *fakeSubscription
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if msg.To != nil && *msg.To == multicallAddr {
		return f.validation, f.callErr
	}
	if f.tokenURI == nil {
		return nil, errors.New("execution reverted")
	}
	return f.tokenURI, nil
}

func (f *fakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = ch
	f.sub = &fakeSubscription{errCh: make(chan error, 1)}
	return f.sub, nil
}

func (f *fakeBackend) pushLog(lg types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs <- lg
}

func packOutputs(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	erc721 := liveviewcommon.GetERC721ABI()
	out, err := erc721.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func validationResponse(t *testing.T, name, symbol string) []byte {
	t.Helper()
	mc := liveviewcommon.GetMultiCallABI()
	out, err := mc.Methods["aggregate"].Outputs.Pack(big.NewInt(19_000_000), [][]byte{
		packOutputs(t, "supportsInterface", true),
		packOutputs(t, "name", name),
		packOutputs(t, "symbol", symbol),
	})
	require.NoError(t, err)
	return out
}

func transferLog(contract ethcommon.Address, tokenID int64) types.Log {
	return types.Log{
		Address: contract,
		Topics: []ethcommon.Hash{
			token.TransferEventTopic,
			ethcommon.BytesToHash(ethcommon.HexToAddress("0x01").Bytes()),
			ethcommon.BytesToHash(ethcommon.HexToAddress("0x02").Bytes()),
			ethcommon.BigToHash(big.NewInt(tokenID)),
		},
		BlockNumber: 19_000_000,
		TxHash:      ethcommon.HexToHash("0xbeef"),
	}
}

func newSession(backend *fakeBackend, out chan session.Response) *session.Session {
	resolver := metadata.NewResolver("ipfs.io", 50*time.Millisecond, discardLogger())
	return session.New("conn-1", backend, multicallAddr, resolver, out, discardLogger())
}

func waitForState(t *testing.T, s *session.Session, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State() == want
	}, time.Second, 5*time.Millisecond, "session never reached state %s", want)
}

func TestSubscribeEmptyAddresses(t *testing.T) {
	out := make(chan session.Response, 8)
	s := newSession(&fakeBackend{}, out)

	err := s.Subscribe(context.Background(), nil)
	assert.ErrorIs(t, err, session.ErrNoAddresses)
	assert.Equal(t, session.StateTerminated, s.State())
}

func TestSubscribeValidationFailure(t *testing.T) {
	out := make(chan session.Response, 8)
	s := newSession(&fakeBackend{callErr: errors.New("connection refused")}, out)

	err := s.Subscribe(context.Background(), []ethcommon.Address{contractAddr})
	assert.ErrorIs(t, err, token.ErrTransport)
	assert.Equal(t, session.StateTerminated, s.State())
}

func TestSubscribeSubscriptionFailure(t *testing.T) {
	out := make(chan session.Response, 8)
	backend := &fakeBackend{
		validation:   validationResponse(t, "Foo", "FOO"),
		subscribeErr: errors.New("websocket closed"),
	}
	s := newSession(backend, out)

	err := s.Subscribe(context.Background(), []ethcommon.Address{contractAddr})
	assert.Error(t, err)
	assert.Equal(t, session.StateTerminated, s.State())
}

func TestStreamingEmitsEnrichedResponses(t *testing.T) {
	out := make(chan session.Response, 8)
	backend := &fakeBackend{validation: validationResponse(t, "Foo", "FOO")}
	s := newSession(backend, out)
	defer s.Cancel()

	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))
	assert.Equal(t, session.StateStreaming, s.State())

	backend.pushLog(transferLog(contractAddr, 7))

	select {
	case resp := <-out:
		assert.Equal(t, "conn-1", resp.ConnectionID)
		assert.Equal(t, contractAddr.Hex(), resp.ContractAddress)
		assert.Equal(t, "Foo", resp.Name)
		assert.Equal(t, "FOO", resp.Symbol)
		assert.Equal(t, ethcommon.HexToAddress("0x01").Hex(), resp.From)
		assert.Equal(t, ethcommon.HexToAddress("0x02").Hex(), resp.To)
		assert.Equal(t, "7", resp.TokenID)
		assert.Equal(t, uint64(19_000_000), resp.BlockNumber)
		assert.Empty(t, resp.Image, "tokenURI read failed, so no image")
		assert.False(t, resp.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no response emitted")
	}
}

func TestStreamingResolvesDataURIs(t *testing.T) {
	dataURI := "data:application/json;base64,eyJpbWFnZSI6ICJ4In0="
	out := make(chan session.Response, 8)
	backend := &fakeBackend{
		validation: validationResponse(t, "Foo", "FOO"),
		tokenURI:   packOutputs(t, "tokenURI", dataURI),
	}
	s := newSession(backend, out)
	defer s.Cancel()

	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))
	backend.pushLog(transferLog(contractAddr, 7))

	select {
	case resp := <-out:
		assert.Equal(t, dataURI, resp.Image)
		assert.Equal(t, "data", resp.ImageKind)
	case <-time.After(time.Second):
		t.Fatal("no response emitted")
	}
}

func TestCancellationStopsEmission(t *testing.T) {
	out := make(chan session.Response, 8)
	backend := &fakeBackend{validation: validationResponse(t, "Foo", "FOO")}
	s := newSession(backend, out)

	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))

	s.Cancel()
	waitForState(t, s, session.StateTerminated)

	// Events arriving after cancellation, buffered or not, must never
	// reach the client.
	backend.pushLog(transferLog(contractAddr, 8))

	select {
	case resp := <-out:
		t.Fatalf("response emitted after cancellation: %+v", resp)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	out := make(chan session.Response, 8)
	s := newSession(&fakeBackend{validation: validationResponse(t, "Foo", "FOO")}, out)
	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))

	s.Cancel()
	s.Cancel()
	waitForState(t, s, session.StateTerminated)
}

func TestDescriptorMissIsSkipped(t *testing.T) {
	out := make(chan session.Response, 8)
	backend := &fakeBackend{validation: validationResponse(t, "Foo", "FOO")}
	s := newSession(backend, out)
	defer s.Cancel()

	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))

	// A transfer from a contract that was never validated: the fake
	// subscriber ignores the filter, which stands in for the race the
	// filter normally prevents.
	other := ethcommon.HexToAddress("0x00000000000000000000000000000000000000bb")
	backend.pushLog(transferLog(other, 1))

	select {
	case resp := <-out:
		t.Fatalf("response emitted for unvalidated contract: %+v", resp)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, session.StateStreaming, s.State(), "a descriptor miss must not terminate the session")
}

func TestStreamClosureTerminates(t *testing.T) {
	out := make(chan session.Response, 8)
	backend := &fakeBackend{validation: validationResponse(t, "Foo", "FOO")}
	s := newSession(backend, out)

	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))

	backend.sub.errCh <- errors.New("node went away")
	waitForState(t, s, session.StateTerminated)
}

func TestFullOutboundChannelDropsNotBlocks(t *testing.T) {
	out := make(chan session.Response, 1)
	backend := &fakeBackend{validation: validationResponse(t, "Foo", "FOO")}
	s := newSession(backend, out)
	defer s.Cancel()

	require.NoError(t, s.Subscribe(context.Background(), []ethcommon.Address{contractAddr}))

	for i := int64(1); i <= 5; i++ {
		backend.pushLog(transferLog(contractAddr, i))
	}

	require.Eventually(t, func() bool {
		return len(out) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, session.StateStreaming, s.State(), "a full outbound channel must not stall the loop")
}
