package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/casefiles/internal/config"
	"github.com/danielpatrickdp/casefiles/internal/narration"
)

var narratorAddr string

var narratorCmd = &cobra.Command{
	Use:   "narrator",
	Short: "Run the narration service",
}

var narratorServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve narration over gRPC, backed by the OpenAI provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := narration.NewOpenAIProvider(cfg.Narration.OpenAIAPIKey, cfg.Narration.Model, cfg.Narration.BaseURL)
		if err != nil {
			return fmt.Errorf("narrator serve needs CASEFILES_NARRATION_OPENAI_API_KEY: %w", err)
		}

		lis, err := net.Listen("tcp", narratorAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", narratorAddr, err)
		}
		srv := grpc.NewServer()
		narration.RegisterNarratorServer(srv, provider, logger)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			logger.Info("shutting down narrator")
			srv.GracefulStop()
		}()

		logger.Info("narrator listening", zap.String("addr", lis.Addr().String()), zap.String("provider", provider.Name()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	},
}

func init() {
	narratorServeCmd.Flags().StringVar(&narratorAddr, "addr", ":50051", "listen address")
	narratorCmd.AddCommand(narratorServeCmd)
}

// buildNarrationClient wires the configured providers: OpenAI first, the
// gRPC narrator second. It returns a nil client when neither is set, which
// makes the narrator use plain text.
func buildNarrationClient() (*narration.FallbackClient, func(), error) {
	return newNarrationClient(cfg.Narration, logger)
}

func newNarrationClient(nc config.NarrationConfig, logger *zap.Logger) (*narration.FallbackClient, func(), error) {
	noop := func() {}
	var primary, fallback narration.Provider
	if nc.OpenAIAPIKey != "" {
		p, err := narration.NewOpenAIProvider(nc.OpenAIAPIKey, nc.Model, nc.BaseURL)
		if err != nil {
			return nil, noop, err
		}
		primary = p
	}
	closer := noop
	if nc.CodecAddr != "" {
		c, err := narration.NewCodecClient(nc.CodecAddr)
		if err != nil {
			return nil, noop, err
		}
		fallback = c
		closer = func() { _ = c.Close() }
	}
	if primary == nil && fallback == nil {
		return nil, noop, nil
	}
	return narration.NewFallbackClient(primary, fallback, nc.Timeout, logger), closer, nil
}
