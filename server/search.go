package server

import (
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/tranvictor/liveview/token"
)

type searchResult struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// handleSearch is the synchronous single-address lookup. It reuses the
// same batched validation path as subscriptions, with a one-address batch.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	backend, err := s.registry.Get(c.Query("chain"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported chain")
	}

	address := c.Query("address")
	if !ethcommon.IsHexAddress(address) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid address")
	}
	addr := ethcommon.HexToAddress(address)

	descriptors, err := token.ValidateAndDescribe(
		c.Context(),
		backend.Client(),
		backend.MultiCallContract(),
		[]ethcommon.Address{addr},
	)
	if err != nil {
		var invalid *token.AddressInvalidError
		if errors.As(err, &invalid) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid address")
		}
		s.logger.Error("search lookup failed",
			"chain", backend.Network().GetName(),
			"address", addr.Hex(),
			"error", err,
		)
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch token data")
	}

	desc := descriptors[addr]
	return c.JSON(searchResult{Name: desc.Name, Symbol: desc.Symbol})
}
