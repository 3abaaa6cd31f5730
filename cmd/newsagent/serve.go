package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/newsagent/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()

		var cache server.CacheStats
		if e.store != nil {
			cache = e.store
		}
		handler, err := server.NewHandler(e.cfg, e.pipeline, e.registry, cache, Version)
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = e.cfg.Server.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "newsagent API listening on http://%s\n", addr)
		return server.ListenAndServe(ctx, addr, server.NewServer(handler))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
