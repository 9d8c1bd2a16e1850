package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate case files without sending requests",
	Long: `Validate case files without executing them. Every case needs a name,
a request URL, a status between 100 and 599 and an expected body.

Examples:
  hitcheck validate users.case.yaml
  hitcheck validate ./cases/`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := cases.Collect(args)
	if err != nil {
		return withExitCode(ExitParseError, err)
	}

	if len(files) == 0 {
		return withExitCode(ExitParseError, fmt.Errorf("no case files found"))
	}

	invalid := 0
	for _, file := range files {
		f, err := cases.Load(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			invalid++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d cases)\n", file, len(f.Cases))
	}

	if invalid > 0 {
		return withExitCode(ExitParseError, fmt.Errorf("validation failed: %d of %d file(s) invalid", invalid, len(files)))
	}

	return nil
}
