package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/server"
)

var (
	serveAddr     string
	serveProvider string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (chat, extract, charts, export)",
	Example: `  erpgenie serve
  erpgenie serve --addr 127.0.0.1:9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = c.ListenAddr
		}
		rt, provider, err := newRuntime(c, serveProvider)
		if err != nil {
			return err
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		w, h := chartSize(c)
		r := server.Setup(server.NewHandler(rt, w, h))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log.Info().Str("provider", provider).Str("addr", addr).Msg("ERPGenie API ready")
		return server.Run(ctx, addr, r)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "chat runtime: webhook|openai (overrides config)")
}
