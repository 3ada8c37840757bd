package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-editor/internal/config"
	"github.com/jonathan/resume-editor/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the chat agent, intent parsing, scoring,
color tools and undo/redo history under /v1.

When JWT_SECRET is set every /v1 request needs a bearer token whose subject
is the user ID; otherwise the X-User-ID header names the user.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.Server.Addr = serveAddr
	}

	jwtCfg, err := config.OptionalJWTConfig()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	agent, store, err := a.agent(ctx)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	deps := server.Deps{
		Agent:   agent,
		Parser:  a.parser(),
		History: store.history,
		JWT:     jwtCfg,
		Logger:  a.logger,
	}
	if store.database != nil {
		deps.Runs = store.database
	}

	srv, err := server.New(a.cfg.Server, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	a.logger.Info("starting server",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("history_backend", a.cfg.History.Backend),
		zap.Bool("jwt", jwtCfg != nil),
		zap.Bool("model", a.client != nil),
	)
	return srv.Run(ctx)
}
