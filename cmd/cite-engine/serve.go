package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/internal/metrics"
	"github.com/pdiddy/cite-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP citation service",
	Long: `Serve builds the embedder, sentence segmenter, paper source and language
model client once, then answers POST /api/cite-openai and /api/cite until
interrupted. GET /healthz reports liveness and GET /metrics exposes Prometheus
metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildComponents(ctx, cfg, creds, stages{pipeline: true}, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("pipeline ready",
		zap.String("search_provider", c.source.Name()),
		zap.String("embedding_model", c.embedder.ModelName()),
		zap.String("llm_provider", string(cfg.LLM.Provider)),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Float64("match_threshold", c.matcher.Threshold()))

	srv := server.New(cfg.Server, c.pipeline, metrics.New(), logger.Named("http"))
	return srv.ListenAndServe(ctx)
}
