package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/abhisek/stepwise/internal/httpapi"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		d, err := openDeps(cmd, depsOptions{withLLM: true})
		if err != nil {
			return err
		}
		defer d.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			d.cfg.Server.Addr = addr
		}
		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			n, err := d.problems.Seed(ctx)
			if err != nil {
				return fmt.Errorf("seed problems: %w", err)
			}
			d.log.Info("seeded problems", "inserted", n)
		}
		if n, err := d.annotations.Reconcile(ctx); err != nil {
			d.log.Warn("startup reconcile failed", "error", err)
		} else if n > 0 {
			d.log.Warn("repaired problems left unannotated", "count", n)
		}

		gin.SetMode(d.cfg.Server.Mode)
		srv := httpapi.NewServer(httpapi.ServerOptions{
			Addr:         d.cfg.Server.Addr,
			ReadTimeout:  d.cfg.Server.ReadTimeout.Duration,
			WriteTimeout: d.cfg.Server.WriteTimeout.Duration,
		}, httpapi.RouterConfig{
			Problems:    d.problems,
			Annotations: d.annotations,
			Store:       d.store,
			Log:         d.log,
			CORSOrigins: d.cfg.Server.CORSOrigins,
			Version:     version,
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config, default :5000)")
	serveCmd.Flags().Bool("seed", false, "Insert the sample problems before serving")
}
