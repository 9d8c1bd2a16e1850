package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/config"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/env"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/hitcheck/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run checks from case files",
	Long: `Send the request of every case in .case.yaml files and check the
response status code and JSON body against the expectation.

Examples:
  hitcheck run users.case.yaml
  hitcheck run ./cases/ --name getUser
  hitcheck run ./cases/ -o junit --output-file report.xml
  hitcheck run users.case.yaml --update
  hitcheck run ./cases/ --watch`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	outputFlag     string
	outputFileFlag string
	timeoutFlag    string
	nameFlag       string
	proxyFlag      string
	configFlag     string
	envFileFlag    string
	logLevelFlag   string
	bailFlag       bool
	verboseFlag    bool
	noColorFlag    bool
	insecureFlag   bool
	updateFlag     bool
	watchFlag      bool
)

func init() {
	// Input flags
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITCHECK_CONFIG", ""), "Path to config file (env: HITCHECK_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("HITCHECK_ENV_FILE", ""), "Path to .env file for ${VAR} references (default: .env if present) (env: HITCHECK_ENV_FILE)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", getEnvString("HITCHECK_NAME", ""), "Run only cases whose name contains this text (env: HITCHECK_NAME)")

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HITCHECK_OUTPUT", "console"), "Output format: console, json, junit, tap (env: HITCHECK_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("HITCHECK_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITCHECK_OUTPUT_FILE)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITCHECK_VERBOSE", false), "Show requests and full bodies on failure (env: HITCHECK_VERBOSE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITCHECK_NO_COLOR", false), "Disable colored output (env: HITCHECK_NO_COLOR)")
	runCmd.Flags().StringVar(&logLevelFlag, "log-level", getEnvString("HITCHECK_LOG_LEVEL", "info"), "Diagnostic log level: debug, info, warn, error (env: HITCHECK_LOG_LEVEL)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("HITCHECK_BAIL", false), "Stop on first failing case (env: HITCHECK_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITCHECK_TIMEOUT", "30s"), "Request timeout (e.g., 30s, 1m) (env: HITCHECK_TIMEOUT)")
	runCmd.Flags().BoolVar(&updateFlag, "update", getEnvBool("HITCHECK_UPDATE", false), "Rewrite failing expectations from the actual responses (env: HITCHECK_UPDATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", getEnvBool("HITCHECK_WATCH", false), "Watch case files for changes and re-run (env: HITCHECK_WATCH)")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("HITCHECK_PROXY", ""), "Proxy URL for HTTP requests (env: HITCHECK_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITCHECK_INSECURE", false), "Disable SSL certificate validation (env: HITCHECK_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newFormatter(cfg *config.Config, w io.Writer) Formatter {
	switch strings.ToLower(cfg.Output) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w))
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w))
	default: // "console"
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		)
	}
}

// flagOverrides returns the settings given on the command line or through
// HITCHECK_* variables. Unset values stay zero so Merge keeps the file's.
func flagOverrides(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	set := func(name, envKey string) bool {
		return flags.Changed(name) || os.Getenv(envKey) != ""
	}

	o := &config.Config{}
	if set("timeout", "HITCHECK_TIMEOUT") {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid timeout value %q: must be positive", timeoutFlag)
		}
		o.Timeout = int(d.Milliseconds())
	}
	if set("output", "HITCHECK_OUTPUT") {
		o.Output = strings.ToLower(outputFlag)
	}
	if set("output-file", "HITCHECK_OUTPUT_FILE") {
		o.OutputFile = outputFileFlag
	}
	if set("env-file", "HITCHECK_ENV_FILE") {
		o.EnvFile = envFileFlag
	}
	if set("log-level", "HITCHECK_LOG_LEVEL") {
		o.LogLevel = logLevelFlag
	}
	if set("proxy", "HITCHECK_PROXY") {
		o.Proxy = proxyFlag
	}
	if set("insecure", "HITCHECK_INSECURE") {
		o.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if set("bail", "HITCHECK_BAIL") {
		o.Bail = config.BoolPtr(bailFlag)
	}
	if set("verbose", "HITCHECK_VERBOSE") {
		o.Verbose = config.BoolPtr(verboseFlag)
	}
	if set("no-color", "HITCHECK_NO_COLOR") {
		o.NoColor = config.BoolPtr(noColorFlag)
	}
	return o, nil
}

func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	overrides, err := flagOverrides(cmd)
	if err != nil {
		return nil, err
	}

	cfg := fileConfig.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: cfg.GetNoColor(),
	})
	return logger, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	// Exported before any case file is read so ${VAR} references resolve
	if _, err := env.LoadEnvFile(cfg.EnvFile); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	r := runner.NewRunner(&runner.Config{
		Timeout:        cfg.TimeoutDuration(),
		FollowRedirect: cfg.GetFollowRedirects(),
		MaxRedirects:   cfg.MaxRedirects,
		ValidateSSL:    cfg.GetValidateSSL(),
		Proxy:          cfg.Proxy,
		DefaultHeaders: cfg.Headers,
		Bail:           cfg.GetBail(),
		NameFilter:     nameFlag,
		Update:         updateFlag,
		Logger:         logger,
	})
	logger.WithField("run", r.RunID()).Debug("runner ready")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runOnce(ctx, cmd, cfg, r, logger, args)
	if err != nil {
		return err
	}
	if !watchFlag {
		return summary.err()
	}

	return watchCases(ctx, cmd, args, func() {
		if _, err := runOnce(ctx, cmd, cfg, r, logger, args); err != nil {
			logger.WithError(err).Error("re-run failed")
		}
	})
}

type runSummary struct {
	passed      int
	failed      int
	skipped     int
	updated     int
	parseErrors int
	fileErrors  int
	duration    time.Duration
}

func (s runSummary) err() error {
	switch {
	case s.parseErrors > 0:
		return withExitCode(ExitParseError, fmt.Errorf("%d case file(s) could not be loaded", s.parseErrors))
	case s.failed > 0 || s.fileErrors > 0:
		return withExitCode(ExitTestFailure, fmt.Errorf("%d test(s) failed", s.failed+s.fileErrors))
	}
	return nil
}

// runOnce collects the case files named by args, runs them and writes the
// report. Errors returned here stop the command; test outcomes are in the summary.
func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, r *runner.Runner, logger logrus.FieldLogger, args []string) (runSummary, error) {
	var summary runSummary

	files, err := cases.Collect(args)
	if err != nil {
		return summary, withExitCode(ExitParseError, err)
	}
	if len(files) == 0 {
		return summary, withExitCode(ExitParseError, fmt.Errorf("no case files (%s) found", strings.Join(cases.Extensions, ", ")))
	}

	w := cmd.OutOrStdout()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return summary, withExitCode(ExitConfigError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		w = f
	}

	formatter := newFormatter(cfg, w)
	_, console := formatter.(*output.ConsoleFormatter)
	formatter.FormatHeader(version)

	start := time.Now()
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		result, err := r.RunFile(ctx, file)
		if result != nil {
			formatter.FormatResult(result)
			summary.passed += result.Passed
			summary.failed += result.Failed
			summary.skipped += result.Skipped
			summary.updated += result.Updated
		}
		if err != nil {
			formatter.FormatError(err)
			if !console {
				logger.WithField("file", file).Error(err)
			}
			var parseErr *cases.ParseError
			if errors.As(err, &parseErr) {
				summary.parseErrors++
			} else {
				summary.fileErrors++
			}
			if cfg.GetBail() {
				break
			}
			continue
		}

		if cfg.GetBail() && result.Failed > 0 {
			break
		}
	}
	summary.duration = time.Since(start)

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(summary.duration); err != nil {
			return summary, fmt.Errorf("error writing output: %w", err)
		}
	}

	return summary, nil
}

// watchCases re-runs on case file changes under args until ctx ends.
func watchCases(ctx context.Context, cmd *cobra.Command, args []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(args) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var (
		debounce *time.Timer
		fire     <-chan time.Time
		changed  string
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !cases.IsCaseFile(event.Name) {
				continue
			}
			changed = event.Name
			if debounce == nil {
				debounce = time.NewTimer(WatchDebounceDelay)
			} else {
				debounce.Reset(WatchDebounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			fmt.Fprintf(out, "\nFile changed: %s\nRe-running checks...\n\n", changed)
			rerun()
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "watcher error: %v\n", err)
		}
	}
}

// watchDirs lists every directory to watch: the parent of each file argument
// and each directory argument with its subdirectories.
func watchDirs(args []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(arg))
			continue
		}
		_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				add(path)
			}
			return nil
		})
	}
	return dirs
}
