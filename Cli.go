package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/reaandrew/secsweep/classify"
	"github.com/reaandrew/secsweep/config"
	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/reporters"
	"github.com/reaandrew/secsweep/repositories"
	"github.com/reaandrew/secsweep/runstore"
	"github.com/reaandrew/secsweep/scanners"
	"github.com/reaandrew/secsweep/tools"
	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Cli represents the command-line interface
type Cli struct {
	verbose    bool
	configFile string

	targets       []string
	githubOrg     string
	gitlabGroup   string
	noCache       bool
	postUrl       string
	toolsFile     string
	reportFrom    string
	reportFormat  string
	reportOutput  string
	historySince  string
	historyDBPath string
}

// Execute sets up and runs the root command
func (cli *Cli) Execute(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "secsweep",
		Short:         "secsweep orchestrates third-party security scanners and aggregates their findings.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cli.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(cli.createScanCommand())
	rootCmd.AddCommand(cli.createReportCommand())
	rootCmd.AddCommand(cli.createListToolsCommand())
	rootCmd.AddCommand(cli.createHistoryCommand())

	return rootCmd.ExecuteContext(ctx)
}

// createScanCommand creates the 'scan' subcommand with its flags
func (cli *Cli) createScanCommand() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the configured scanning tools against one or more targets.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cli.runScan(cmd)

			// Configuration problems get the usage text, per-tool
			// failures do not: they are findings, not CLI mistakes.
			var configErr *core.ConfigError
			if errors.As(err, &configErr) {
				fmt.Fprintln(os.Stderr, configErr.Error())
				_ = cmd.Usage()
			}
			return err
		},
	}

	flags := scanCmd.Flags()
	flags.StringArrayVar(&cli.targets, "target", nil, "Scan target: a local path or repository URL (repeatable)")
	flags.StringSlice("tools", nil, "Comma-separated subset of tools to run (default: all)")
	flags.String("schedule", "once", "Run schedule: once, hourly, daily, weekly, monthly, or a cron expression")
	flags.StringP("output", "o", "", "Report output path (default depends on format)")
	flags.String("format", "json", "Report format: json, xlsx, sqlite or table")
	flags.StringArray("exclude", nil, "Glob of paths to exclude from findings (repeatable)")
	flags.Int("workers", 4, "Number of concurrent tool invocations")
	flags.Duration("timeout", 10*time.Minute, "Per-invocation timeout (0 disables)")
	flags.String("clone-dir", "", "Directory remote targets are cloned into")
	flags.Bool("keep-clones", false, "Keep cloned repositories after the run")
	flags.String("tools-file", "", "YAML file with additional tool definitions")
	flags.String("gitlab-base-url", "", "Base URL of a self-hosted GitLab instance")
	flags.StringVar(&cli.githubOrg, "github-org", "", "Scan every repository of a GitHub organization")
	flags.StringVar(&cli.gitlabGroup, "gitlab-group", "", "Scan every project of a GitLab group")
	flags.BoolVar(&cli.noCache, "no-cache", false, "Bypass the GitLab project cache")
	flags.StringVar(&cli.postUrl, "post-url", "", "Also push the report to this HTTP endpoint")
	flags.StringVar(&cli.configFile, "config", "", "Config file (default ~/.secsweep.yaml)")

	return scanCmd
}

func (cli *Cli) runScan(cmd *cobra.Command) error {
	ctx := cmd.Context()

	var cfg *config.Config
	var err error
	if cli.configFile != "" {
		cfg, err = config.LoadFromFile(cli.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	config.ApplyFlags(cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	rawTargets := append([]string{}, cli.targets...)
	if cli.githubOrg != "" {
		expanded, err := scanners.ExpandGithubOrg(ctx, utils.NewGithubApiClient(), cli.githubOrg)
		if err != nil {
			return err
		}
		rawTargets = append(rawTargets, expanded...)
	}
	if cli.gitlabGroup != "" {
		api, err := utils.NewGitlabApiClient(os.Getenv("GITLAB_TOKEN"), cfg.GitlabBaseURL, cli.noCache)
		if err != nil {
			return core.NewConfigError("%v", err)
		}
		expanded, err := scanners.ExpandGitlabGroup(ctx, api, cli.gitlabGroup)
		if err != nil {
			return err
		}
		rawTargets = append(rawTargets, expanded...)
	}
	if len(rawTargets) == 0 {
		return core.NewConfigError("no targets specified, use --target, --github-org or --gitlab-group")
	}

	registry := tools.NewRegistry()
	if cfg.ToolsFile != "" {
		if err := tools.LoadToolsFile(registry, cfg.ToolsFile); err != nil {
			return err
		}
	}
	selected, err := registry.Resolve(cfg.Tools)
	if err != nil {
		return err
	}

	classifier, err := classify.NewClassifier(cfg.Excludes)
	if err != nil {
		return err
	}

	spec, recurring, err := scanners.ParseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}

	reporter, err := cli.createReporter(cfg)
	if err != nil {
		return err
	}

	repository, err := repositories.NewFileBasedFindingRepository()
	if err != nil {
		return err
	}
	defer func() {
		if err := repository.Close(); err != nil {
			log.Warnf("Failed to close finding repository: %v", err)
		}
	}()

	resolver := &scanners.TargetResolver{CloneBaseDir: cfg.CloneBaseDir, KeepClones: cfg.KeepClones}
	defer resolver.Cleanup()

	runner := scanners.ScanRunner{
		Invoker:    tools.Invoker{Timeout: cfg.Timeout},
		Classifier: classifier,
		Repository: repository,
		Reporter:   reporter,
		Workers:    cfg.Workers,
		WorkDir:    os.TempDir(),
	}
	if recurring || cfg.Format == "table" {
		runner.ProgressReporter = utils.NoopProgressReporter{}
	} else {
		runner.ProgressReporter = utils.NewBarProgressReporter(0, "Scanning")
	}

	reportPath := cfg.Output
	if reportPath == "" {
		reportPath = reporters.DefaultOutputPath(cfg.Format)
	}

	runOnce := func(ctx context.Context) error {
		resolved, err := resolver.Resolve(ctx, rawTargets)
		if err != nil {
			return err
		}
		run, err := runner.Run(ctx, selected, resolved)
		if err != nil {
			return err
		}
		cli.recordRun(run, reportPath)
		log.Infof("Run %s finished: %d findings across %d invocations", run.ID, run.Summary.Findings, len(run.Invocations))
		return nil
	}

	if !recurring {
		return runOnce(ctx)
	}

	// Any failing cycle stops the schedule; there is no retry logic.
	scheduleCtx, stopSchedule := context.WithCancel(ctx)
	defer stopSchedule()

	var runErr error
	err = scanners.RunOnSchedule(scheduleCtx, spec, func() {
		if err := runOnce(scheduleCtx); err != nil {
			runErr = err
			stopSchedule()
		}
	})
	if runErr != nil {
		return runErr
	}
	return err
}

func (cli *Cli) createReporter(cfg *config.Config) (reporters.Reporter, error) {
	reporter, err := reporters.CreateReporter(cfg.Format, cfg.Output)
	if err != nil {
		return nil, core.NewConfigError("%v", err)
	}
	if cli.postUrl != "" {
		return reporters.MultiReporter{reporter, reporters.NewDefaultHttpReporter(cli.postUrl)}, nil
	}
	return reporter, nil
}

// recordRun appends the run to the local history, best effort.
func (cli *Cli) recordRun(run *core.Run, reportPath string) {
	path, err := runstore.DefaultPath()
	if err != nil {
		log.Warnf("Failed to locate run history store: %v", err)
		return
	}
	store, err := runstore.Open(path)
	if err != nil {
		log.Warnf("Failed to open run history store: %v", err)
		return
	}
	defer store.Close()

	if err := store.Save(runstore.Summarize(run, reportPath)); err != nil {
		log.Warnf("Failed to record run history: %v", err)
	}
}

// createReportCommand creates the 'report' subcommand: it re-renders a
// report from a findings database written by a previous sqlite-format run.
func (cli *Cli) createReportCommand() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render a report from a previously written findings database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.reportFrom == "" {
				return core.NewConfigError("missing --from: path to a findings database")
			}
			if !utils.Contains(config.ReportFormats, cli.reportFormat) {
				return core.NewConfigError("unknown report format %q, expected one of: %s", cli.reportFormat, strings.Join(config.ReportFormats, ", "))
			}
			if _, err := os.Stat(cli.reportFrom); err != nil {
				return core.NewConfigError("findings database %q does not exist", cli.reportFrom)
			}

			repository, err := repositories.OpenSqliteFindingRepository(cli.reportFrom)
			if err != nil {
				return fmt.Errorf("failed to open findings database: %w", err)
			}
			defer repository.Close()

			run, err := repository.LoadRun()
			if err != nil {
				return fmt.Errorf("failed to load run from %q: %w", cli.reportFrom, err)
			}

			reporter, err := reporters.CreateReporter(cli.reportFormat, cli.reportOutput)
			if err != nil {
				return err
			}
			return reporter.Report(run, repository)
		},
	}

	reportCmd.Flags().StringVar(&cli.reportFrom, "from", "", "Findings database written by a sqlite-format scan")
	reportCmd.Flags().StringVar(&cli.reportFormat, "format", "json", "Report format: json, xlsx, sqlite or table")
	reportCmd.Flags().StringVarP(&cli.reportOutput, "output", "o", "", "Report output path (default depends on format)")
	return reportCmd
}

// createListToolsCommand creates the 'list-tools' subcommand
func (cli *Cli) createListToolsCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list-tools",
		Short: "List the wrapped scanning tools and whether each binary is installed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tools.NewRegistry()
			if cli.toolsFile != "" {
				if err := tools.LoadToolsFile(registry, cli.toolsFile); err != nil {
					return err
				}
			}

			invoker := tools.Invoker{}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Tool", "Target Kind", "Binary", "Available", "Description"})
			table.SetAutoWrapText(false)
			table.SetBorder(false)
			for _, tool := range registry.All() {
				available := color.GreenString("yes")
				if err := invoker.CheckAvailable(tool); err != nil {
					available = color.RedString("no")
				}
				table.Append([]string{tool.Name, string(tool.Kind), tool.Bin, available, tool.Description})
			}
			table.Render()
			return nil
		},
	}

	listCmd.Flags().StringVar(&cli.toolsFile, "tools-file", "", "YAML file with additional tool definitions")
	return listCmd
}

// createHistoryCommand creates the 'history' subcommand
func (cli *Cli) createHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List previously recorded runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := runstore.ParseSince(cli.historySince)
			if err != nil {
				return err
			}

			path := cli.historyDBPath
			if path == "" {
				path, err = runstore.DefaultPath()
				if err != nil {
					return fmt.Errorf("failed to locate run history store: %w", err)
				}
			}
			store, err := runstore.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.List(since)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No recorded runs.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Run", "Started", "Duration", "Targets", "Tools", "Findings", "Report"})
			table.SetAutoWrapText(false)
			table.SetBorder(false)
			for _, summary := range summaries {
				table.Append([]string{
					summary.ID,
					summary.StartedAt.Local().Format("2006-01-02 15:04:05"),
					summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second).String(),
					strings.Join(summary.Targets, ", "),
					strings.Join(summary.Tools, ", "),
					fmt.Sprintf("%d", summary.Findings),
					summary.ReportPath,
				})
			}
			table.Render()
			return nil
		},
	}

	historyCmd.Flags().StringVar(&cli.historySince, "since", "", "Only list runs started after this date (natural language accepted)")
	historyCmd.Flags().StringVar(&cli.historyDBPath, "db", "", "Run history database (default ~/.secsweep_cache/runs.db)")
	return historyCmd
}
