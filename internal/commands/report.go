package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sanops/asbuilt/internal/report"
	"github.com/sanops/asbuilt/internal/services"
	"github.com/sanops/asbuilt/internal/store"
	"github.com/sanops/asbuilt/pkg/scheduler"
)

var (
	outputDir   string
	showHistory bool
	hostFlag    string
	userFlag    string
	tokenFlag   string
	insecure    bool
	sshEnable   bool
	switchFlags []string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Collect the cluster inventory and write the as-built artifacts",
	Long: `Run one full collection against the configured cluster and render
every artifact kind into the output directory. With --history, list the
locally stored runs instead of collecting.`,
	RunE:         runReport,
	SilenceUsage: true,
}

func init() {
	reportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "artifact output directory (overrides config)")
	reportCmd.Flags().BoolVar(&showHistory, "history", false, "list stored runs instead of collecting")
	reportCmd.Flags().StringVar(&hostFlag, "host", "", "cluster management address (overrides config)")
	reportCmd.Flags().StringVarP(&userFlag, "username", "u", "", "cluster username (overrides config)")
	reportCmd.Flags().StringVar(&tokenFlag, "token", "", "cluster API token (overrides config)")
	reportCmd.Flags().BoolVarP(&insecure, "insecure", "k", false, "skip TLS certificate verification")
	reportCmd.Flags().BoolVar(&sshEnable, "ssh", false, "enable SSH topology correlation")
	reportCmd.Flags().StringSliceVar(&switchFlags, "switch", nil, "data-plane switch IP, repeatable (implies --ssh)")
}

// applyFlags folds command-line overrides into the loaded config.
func applyFlags() error {
	if hostFlag != "" {
		cfg.Cluster.Host = hostFlag
	}
	if userFlag != "" {
		cfg.Cluster.Username = userFlag
	}
	if tokenFlag != "" {
		cfg.Cluster.Token = tokenFlag
	}
	if insecure {
		cfg.Cluster.Insecure = true
	}
	if len(switchFlags) > 0 {
		cfg.SSH.Switches = switchFlags
		sshEnable = true
	}
	if sshEnable {
		cfg.SSH.Enabled = true
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	return cfg.Validate()
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if showHistory {
		return printHistory(ctx, st)
	}

	if err := applyFlags(); err != nil {
		return err
	}
	if err := ensureCredentials(); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(cfg.Workers)
	defer sched.Close()

	assembler := report.NewAssembler(cfg.Output.Dir, sched)
	collector := services.NewCollectorService(
		services.NewGridPipeline(cfg), st, assembler, sched, cfg.History.Keep)

	run, err := collector.RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Collected %s (API %s, firmware %s): completeness %.1f%%\n",
		run.Cluster, run.Revision, run.Firmware, run.Completeness*100)
	fmt.Printf("Artifacts written to %s\n", cfg.Output.Dir)
	return nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	db, err := store.NewDB(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	st := store.NewStore(db)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate run history: %w", err)
	}
	return st, nil
}

func printHistory(ctx context.Context, st *store.Store) error {
	runs, err := st.Runs().List(ctx, store.WithDefaultSort())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %-20s  %s  fw %-8s  %5.1f%%  %s\n",
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Cluster, run.Revision, run.Firmware,
			run.Completeness*100, run.ID)
	}
	return nil
}

// ensureCredentials prompts for a password when neither a token nor a
// password was configured. Refuses to prompt without a terminal.
func ensureCredentials() error {
	if cfg.Cluster.Token != "" || cfg.Cluster.Password != "" {
		return nil
	}
	if cfg.Cluster.Username == "" {
		return fmt.Errorf("no credentials: set cluster.username or ASBUILT_TOKEN")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("no password configured and stdin is not a terminal")
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", cfg.Cluster.Username, cfg.Cluster.Host)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	cfg.Cluster.Password = string(raw)
	return nil
}
