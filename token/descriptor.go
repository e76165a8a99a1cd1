package token

import (
	"github.com/ethereum/go-ethereum/common"
)

// Descriptor is the identity of one validated token contract. It is
// resolved exactly once per address per session by ValidateAndDescribe.
type Descriptor struct {
	Address common.Address
	Name    string
	Symbol  string
}
