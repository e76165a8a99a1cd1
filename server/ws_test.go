package server

import (
	"errors"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/liveview/session"
	"github.com/tranvictor/liveview/token"
)

func TestRequestUnmarshal(t *testing.T) {
	raw := []byte(`{"chain": "Mainnet", "addresses": ["0x00000000000000000000000000000000000000aa"]}`)

	req := Request{}
	require.NoError(t, json.Unmarshal(raw, &req))
	assert.Equal(t, "Mainnet", req.Chain)
	assert.Equal(t, []string{"0x00000000000000000000000000000000000000aa"}, req.Addresses)
}

func TestErrorMessageShape(t *testing.T) {
	payload, err := json.Marshal(ErrorMessage{ConnectionID: "c1", Message: "no addresses provided"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"connectionId": "c1", "message": "no addresses provided"}`, string(payload))
}

func TestSubscribeErrorMessage(t *testing.T) {
	addr := ethcommon.HexToAddress("0x00000000000000000000000000000000000000aa")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty input", session.ErrNoAddresses, "no addresses provided"},
		{
			"invalid address",
			&token.AddressInvalidError{Address: addr},
			"address " + addr.Hex() + " is not a valid token contract",
		},
		{"transport", errors.Join(token.ErrTransport, errors.New("connection refused")), "failed to fetch token data"},
		{
			"subscription open",
			errors.Join(token.ErrSubscribeFailed, errors.New("websocket closed")),
			"failed to subscribe to transfer events",
		},
		{"unknown", errors.New("boom"), "failed to subscribe to transfer events"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, subscribeErrorMessage(tc.err))
		})
	}
}
