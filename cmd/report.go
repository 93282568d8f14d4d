// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/prstats/internal/config"
	"github.com/naka-gawa/prstats/internal/domain"
	"github.com/naka-gawa/prstats/internal/gateway"
	"github.com/naka-gawa/prstats/internal/report"
	"github.com/naka-gawa/prstats/internal/usecase"
)

var reportCmd = &cobra.Command{
	Use:   "report [org/repo...]",
	Short: "Fetches pull requests and writes percentile summaries and plots",
	Long: `Fetches every pull request of the configured repositories, one number at a time,
and writes output/<org>/<repo>/stats.txt together with plots under output/<org>/<repo>/plots/.
Repositories given as arguments replace the ones from the config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		flags, err := readReportFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := applyOverrides(cfg, flags, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
		if cfg.Token == "" {
			logger.Warnf("no token configured and %s is not set, using unauthenticated requests", config.TokenEnv)
		}

		// Inject dependencies and run the main business logic.
		getter, err := gateway.New(gateway.Options{Token: cfg.Token, BaseURL: cfg.BaseURL, API: cfg.API}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		analyzer := usecase.NewAnalyzer(
			usecase.NewFetcher(getter, cfg.FaultToleranceOr(usecase.DefaultFaultTolerance), logger),
			usecase.NewSummarizer(logger),
			report.NewFileReporter(cfg.OutputDir, cfg.Workbook, logger),
			logger,
			usecase.AnalyzerOptions{Parallel: flags.parallel, KeepGoing: flags.keepGoing},
		)

		if err := analyzer.Run(ctx, cfg.Repos); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to analyze repositories: %v\n", err)
			os.Exit(1)
		}
	},
}

// reportFlags holds the report flags; a nil pointer means the flag was not set
// and the config value applies.
type reportFlags struct {
	faultTolerance *int
	output         *string
	api            *string
	baseURL        *string
	workbook       *bool
	parallel       int
	keepGoing      bool
}

func readReportFlags(cmd *cobra.Command) (reportFlags, error) {
	var flags reportFlags
	var err error
	f := cmd.Flags()
	if f.Changed("fault-tolerance") {
		v, err := f.GetInt("fault-tolerance")
		if err != nil {
			return flags, err
		}
		flags.faultTolerance = &v
	}
	for name, dst := range map[string]**string{"output": &flags.output, "api": &flags.api, "base-url": &flags.baseURL} {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return flags, err
		}
		*dst = &v
	}
	if f.Changed("xlsx") {
		v, err := f.GetBool("xlsx")
		if err != nil {
			return flags, err
		}
		flags.workbook = &v
	}
	if flags.parallel, err = f.GetInt("parallel"); err != nil {
		return flags, err
	}
	if flags.keepGoing, err = f.GetBool("keep-going"); err != nil {
		return flags, err
	}
	return flags, nil
}

// applyOverrides lets explicitly set flags and repository arguments win over the config.
func applyOverrides(cfg *config.Config, flags reportFlags, args []string) error {
	if flags.faultTolerance != nil {
		cfg.FaultTolerance = flags.faultTolerance
	}
	if flags.output != nil {
		cfg.OutputDir = *flags.output
	}
	if flags.api != nil {
		cfg.API = *flags.api
	}
	if flags.baseURL != nil {
		cfg.BaseURL = *flags.baseURL
	}
	if flags.workbook != nil {
		cfg.Workbook = *flags.workbook
	}
	if len(args) == 0 {
		return nil
	}
	repos := make([]domain.Repository, 0, len(args))
	for _, arg := range args {
		repo, err := domain.ParseRepository(arg)
		if err != nil {
			return err
		}
		repos = append(repos, repo)
	}
	cfg.Repos = repos
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Int("fault-tolerance", usecase.DefaultFaultTolerance, "Number of missing pull request numbers to skip before stopping")
	reportCmd.Flags().StringP("output", "o", "output", "Output root directory")
	reportCmd.Flags().String("api", gateway.APIREST, "GitHub API backend: rest or graphql")
	reportCmd.Flags().String("base-url", "", "GitHub Enterprise URL (defaults to github.com)")
	reportCmd.Flags().Bool("xlsx", false, "Also write report.xlsx with the raw data and charts")
	reportCmd.Flags().Int("parallel", 1, "Number of repositories analyzed at once")
	reportCmd.Flags().Bool("keep-going", false, "Continue with the next repository after a failure")
}
