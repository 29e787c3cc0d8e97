package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/pbaille/pyq/internal/api"
	"github.com/pbaille/pyq/internal/auth"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string
	var gops bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("PYQ_JWT_SECRET environment variable not set")
			}

			if gops {
				if err := agent.Listen(agent.Options{}); err != nil {
					return fmt.Errorf("gops agent: %w", err)
				}
				defer agent.Close()
			}

			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			authSvc, err := auth.New(s, cfg.Auth.Secret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(p, authSvc, api.Options{
				Addr:           cfg.Server.Addr,
				MaxDocuments:   cfg.Pipeline.MaxDocuments,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				Logf:           log.Printf,
			})
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides server.addr)")
	cmd.Flags().BoolVar(&gops, "gops", false, "start the gops diagnostics agent")
	return cmd
}
