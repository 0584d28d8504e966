package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gwbench/internal/dummy"
)

func newDummyCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "dummy",
		Short: "Run an in-memory object gateway to benchmark against",
		Long: `Starts an in-memory gateway that answers bucket and object requests
(PUT, GET with Range, DELETE) and exposes its own /metrics page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := dummy.ServerConfig{
				Port:          v.GetInt("dummy.port"),
				Latency:       v.GetDuration("dummy.latency"),
				Jitter:        v.GetDuration("dummy.jitter"),
				ErrorRate:     v.GetFloat64("dummy.error-rate"),
				RequireBucket: v.GetBool("dummy.require-bucket"),
			}
			srv, _ := dummy.Start(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info("shutting down dummy gateway")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	f := c.Flags()
	f.Int("port", 8080, "listen port")
	f.Duration("latency", 0, "delay added to every object request")
	f.Duration("jitter", 0, "random extra delay up to this value")
	f.Float64("error-rate", 0, "share of object requests answered with 500")
	f.Bool("require-bucket", false, "reject object puts into buckets that were not created")

	v.BindPFlag("dummy.port", f.Lookup("port"))
	v.BindPFlag("dummy.latency", f.Lookup("latency"))
	v.BindPFlag("dummy.jitter", f.Lookup("jitter"))
	v.BindPFlag("dummy.error-rate", f.Lookup("error-rate"))
	v.BindPFlag("dummy.require-bucket", f.Lookup("require-bucket"))
	return c
}
