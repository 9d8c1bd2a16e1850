package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/runner"
	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating long values
func formatValue(v any, maxLen int) string {
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Checking: "+result.File))

	for _, c := range result.Cases {
		if c.Skipped {
			fmt.Fprintf(f.writer, "  %s %s (%s)\n", yellow("-"), c.Name, c.SkipReason)
			continue
		}

		line := fmt.Sprintf("  %s %s", bold(c.Name), cyan(fmt.Sprintf("(%dms)", c.Duration.Milliseconds())))
		if c.Updated {
			line += " " + yellow("expectation updated")
		}
		fmt.Fprintln(f.writer, line)

		if f.verbose && c.Request != nil {
			fmt.Fprintf(f.writer, "    %s %s\n", c.Request.Method, c.Request.URL)
		}
		if f.verbose && c.Response != nil {
			fmt.Fprintf(f.writer, "    Status: %d\n", c.Response.StatusCode)
		}

		for _, r := range c.Results {
			if r.Passed {
				fmt.Fprintf(f.writer, "    %s %s\n", green("✓"), r.Name)
				continue
			}
			fmt.Fprintf(f.writer, "    %s %s\n", red("✗"), r.Name)
			f.formatFailure(r.Err)
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Passed+result.Failed)
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "Cases: %s\n", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	if result.Updated > 0 {
		fmt.Fprintf(f.writer, "Updated: %s\n", yellow(fmt.Sprintf("%d expectation(s)", result.Updated)))
	}
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) formatFailure(err error) {
	red := color.New(color.FgRed).SprintFunc()

	var statusErr *assertions.StatusMismatchError
	var bodyErr *assertions.BodyMismatchError
	switch {
	case errors.As(err, &statusErr):
		fmt.Fprintf(f.writer, "      Expected: %d\n", statusErr.Expected)
		fmt.Fprintf(f.writer, "      Actual:   %d\n", statusErr.Actual)
	case errors.As(err, &bodyErr):
		for _, d := range bodyErr.Differences {
			fmt.Fprintf(f.writer, "      %s %s\n", red("→"), formatValue(d, 200))
		}
		if f.verbose {
			fmt.Fprintf(f.writer, "      Expected:\n%s\n", indent(assertions.FormatJSON(bodyErr.Expected), "        "))
			fmt.Fprintf(f.writer, "      Actual:\n%s\n", indent(assertions.FormatJSON(bodyErr.Actual), "        "))
		}
	case err != nil:
		fmt.Fprintf(f.writer, "      %s\n", err)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitcheck"), version)
}
