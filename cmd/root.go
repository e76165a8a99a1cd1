// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tranvictor/liveview/chain"
	"github.com/tranvictor/liveview/config"
	"github.com/tranvictor/liveview/metadata"
	"github.com/tranvictor/liveview/server"
)

var (
	flagPort     int
	flagConfig   string
	flagLogLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "liveview",
	Short: "Stream live NFT transfer events from EVM chains over websocket",
	Long: `Liveview is a websocket service that streams live token transfer events
from mainnet, base, arbitrum, optimism, polygon and bsc.

A client connects to /ws and sends a subscription request naming a chain
and a list of NFT contract addresses. Liveview verifies all addresses with
one batched contract call, then streams each transfer on those contracts
back to the client, enriched with the collection's name and symbol plus an
image reference resolved from the token's metadata URI when one exists.

A companion GET /search endpoint performs the same verification for a
single address synchronously.

Node endpoints default to public websocket RPCs. Point a chain at your own
node (recommended) via the config file or env vars such as
ETHEREUM_MAINNET_NODE and BASE_MAINNET_NODE.`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flagPort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := chain.NewRegistry(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building chain registry: %w", err)
	}
	defer registry.Close()

	resolver := metadata.NewResolver(cfg.Metadata.IPFSGateway, cfg.Metadata.FetchTimeoutDuration(), logger)
	srv := server.New(cfg, registry, resolver, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Listen)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Shutdown()
	})
	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Flags().IntVarP(&flagPort, "port", "p", 8000, "port to listen on")
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", os.Getenv("LIVEVIEW_CONFIG"), "path to yaml config file")
	rootCmd.Flags().StringVarP(&flagLogLevel, "log-level", "l", "info", "log level: debug, info, warn, error")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
