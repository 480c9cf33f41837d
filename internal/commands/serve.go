package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/handlers"
	"github.com/sanops/asbuilt/internal/report"
	"github.com/sanops/asbuilt/internal/server"
	"github.com/sanops/asbuilt/internal/services"
	"github.com/sanops/asbuilt/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a local agent exposing collected runs over HTTP",
	Long: `Start the HTTP API. Collections are triggered over the API and run
in the background; finished runs are stored locally and rendered into the
output directory.`,
	RunE:         runServe,
	SilenceUsage: true,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	sched := scheduler.NewScheduler(cfg.Workers)
	defer sched.Close()

	assembler := report.NewAssembler(cfg.Output.Dir, sched)
	collector := services.NewCollectorService(
		services.NewGridPipeline(cfg), st, assembler, sched, cfg.History.Keep)

	handler := handlers.New(collector, st)
	srv := server.New(cfg.Server, handler.Register)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zap.S().Named("serve").Info("shutdown signal received")
		return srv.Stop(context.Background())
	}
}
