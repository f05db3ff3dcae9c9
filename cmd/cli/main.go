package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"mcprice/adapters/rng"
	"mcprice/app"
	"mcprice/domain/option"
	"mcprice/internal"
	"mcprice/internal/config"
	"mcprice/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Trace("no .env file loaded: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

// errorLine prefixes coded errors with their code
func errorLine(err error) string {
	if errors.IsAppError(err) {
		return fmt.Sprintf("error [%s]: %v", errors.GetCode(err), err)
	}
	return fmt.Sprintf("error: %v", err)
}

// flagError reports bad flags as INVALID_ARGUMENT. A negative count such
// as -5 parses as a flag, so point at the -- separator.
func flagError(cmd *cobra.Command, err error) error {
	return errors.InvalidArgument("%v (use -- before a negative numSimulations)", err)
}

// flags shared by every command; zero values mean "keep the configured value"
type runFlags struct {
	strategy  string
	seed      uint64
	workers   int
	batchSize int
	format    string

	cfg    *config.Config
	logger *internal.Logger
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}
	var profile, verify bool

	rootCmd := &cobra.Command{
		Use:   "mcprice [numSimulations]",
		Short: "Monte Carlo pricing of European options under geometric Brownian motion",
		Long: `Price a European call and put on the reference contract
(S=42, K=40, T=0.5, r=0.1, sigma=0.2) by Monte Carlo simulation.

Configuration is read from the environment (and an optional .env file):
- MCPRICE_STRATEGY=serial|parallel|grid (default: grid)
- MCPRICE_SEED (default: 0xdead5eed)
- MCPRICE_WORKERS (default: GOMAXPROCS)
- MCPRICE_BATCH_SIZE (default: 256)
- MCPRICE_MAX_BUFFER_BYTES (default: 4 GiB)
- MCPRICE_PROFILE_SAMPLE (default: 100000)
- LOG_LEVEL=ERROR|WARN|INFO|DEBUG|TRACE
Flags override the environment. With --verify the run is priced a second
time and must reproduce bit for bit.

Example: mcprice 1000000 --strategy parallel --seed 7`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			numPaths, err := numPathsArg(args, flags.cfg.Pricing.NumPaths)
			if err != nil {
				return err
			}
			return runPrice(cmd, flags, numPaths, profile, verify)
		},
	}
	rootCmd.SetFlagErrorFunc(flagError)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.strategy, "strategy", "", "Execution strategy: serial, parallel or grid")
	pf.Uint64Var(&flags.seed, "seed", 0, "Random seed (default from MCPRICE_SEED)")
	pf.IntVar(&flags.workers, "workers", 0, "CPU workers / resident blocks (default from MCPRICE_WORKERS)")
	pf.IntVar(&flags.batchSize, "batch-size", 0, "Pool chunk length and grid block size (default from MCPRICE_BATCH_SIZE)")
	pf.StringVar(&flags.format, "format", "text", "Output format: text, json or yaml")
	rootCmd.Flags().BoolVar(&profile, "profile", false, "Add a payoff distribution profile to the report")
	rootCmd.Flags().BoolVar(&verify, "verify", false, "Reprice and fail unless the result is bit-identical")

	rootCmd.AddCommand(
		newCompareCmd(flags),
		newConvergenceCmd(flags),
	)
	return rootCmd
}

func newCompareCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [numSimulations]",
		Short: "Price with every strategy on the same seed and report their disagreement",
		Long: `Run the serial, parallel and grid strategies on identical random draws.
The estimates may differ only by storage precision and summation order.

Example: mcprice compare 1000000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numPaths, err := numPathsArg(args, flags.cfg.Pricing.NumPaths)
			if err != nil {
				return err
			}
			return runCompare(cmd, flags, numPaths)
		},
	}
}

func newConvergenceCmd(flags *runFlags) *cobra.Command {
	var maxPaths int

	cmd := &cobra.Command{
		Use:   "convergence",
		Short: "Price at 10^4, 10^5, ... paths and report the error against Black-Scholes",
		Long: `Run the configured strategy at increasing powers of ten and print the
relative error of each estimate against the closed-form price.

Example: mcprice convergence --max 10000000 --strategy parallel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxPaths <= 0 {
				return errors.InvalidArgument("--max must be a positive integer, got %d", maxPaths)
			}
			return runConvergence(cmd, flags, maxPaths)
		},
	}

	cmd.Flags().IntVar(&maxPaths, "max", 10_000_000, "Largest path count")
	return cmd
}

// load reads the environment configuration and applies explicit flags
func (f *runFlags) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Pricing.Strategy = strings.ToLower(strings.TrimSpace(f.strategy))
	}
	if changed("seed") {
		cfg.Pricing.Seed = f.seed
	}
	if changed("workers") {
		cfg.Compute.Workers = f.workers
	}
	if changed("batch-size") {
		cfg.Compute.BatchSize = f.batchSize
	}
	if err := cfg.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidArgument, err)
	}
	if !validFormat(f.format) {
		return errors.InvalidArgument("unknown format %q, expected text, json or yaml", f.format)
	}

	level, err := internal.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	f.cfg = cfg
	f.logger = internal.NewLogger(level)
	return nil
}

// numPathsArg validates the optional numSimulations argument before
// anything is allocated
func numPathsArg(args []string, fallback int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, errors.InvalidArgument("numSimulations must be a positive integer, got %q", args[0])
	}
	return n, nil
}

func runPrice(cmd *cobra.Command, flags *runFlags, numPaths int, profile, verify bool) error {
	defer flags.logger.Sync()

	params, err := option.ReferenceScenario(numPaths)
	if err != nil {
		return err
	}
	service, err := app.NewFromConfig(flags.cfg, flags.logger)
	if err != nil {
		return err
	}
	if profile {
		service = service.WithProfile(flags.cfg.Profiling.Sample)
	}

	report, err := service.Price(cmd.Context(), params, flags.cfg.Pricing.Seed)
	if err != nil {
		return err
	}
	for _, timing := range report.Timings {
		flags.logger.Debug("phase %s took %s", timing.Stage, timing.Duration)
	}
	if verify {
		if err := service.Verify(cmd.Context(), params, report); err != nil {
			return err
		}
	}
	return render(cmd.OutOrStdout(), flags.format, report, func() string { return reportText(report) })
}

func runCompare(cmd *cobra.Command, flags *runFlags, numPaths int) error {
	defer flags.logger.Sync()

	params, err := option.ReferenceScenario(numPaths)
	if err != nil {
		return err
	}
	executors, err := app.ExecutorsFromConfig(flags.cfg, flags.logger)
	if err != nil {
		return err
	}
	cmp, err := app.Compare(cmd.Context(), rng.NewManager(), executors, params, flags.cfg.Pricing.Seed, flags.logger)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), flags.format, cmp, func() string { return comparisonText(cmp) })
}

func runConvergence(cmd *cobra.Command, flags *runFlags, maxPaths int) error {
	defer flags.logger.Sync()

	params, err := option.ReferenceScenario(maxPaths)
	if err != nil {
		return err
	}
	service, err := app.NewFromConfig(flags.cfg, flags.logger)
	if err != nil {
		return err
	}

	points, err := service.Convergence(cmd.Context(), params, flags.cfg.Pricing.Seed, app.ConvergenceSizes(maxPaths))
	if err != nil {
		return err
	}
	reference := option.BlackScholes(params)
	return render(cmd.OutOrStdout(), flags.format, points, func() string { return convergenceText(reference, points) })
}
