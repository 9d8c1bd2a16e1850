package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitcheck project",
	Long: `Initialize a new hitcheck project in the current directory.

This creates:
  - hitcheck.config.json - Configuration file with defaults
  - example.case.yaml    - Example case file
  - .env                 - Variables referenced by the example

Examples:
  hitcheck init
  hitcheck init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func exampleCases(path string) *cases.File {
	todo := &cases.Case{
		Name: "getTodo",
		Request: cases.Request{
			Method: "GET",
			URL:    "${BASE_URL}/todos/1",
			Headers: map[string]string{
				"Accept": "application/json",
			},
		},
	}
	todo.Expect.Status = 200
	todo.Expect.SetBody(map[string]any{
		"userId":    1,
		"id":        1,
		"title":     "delectus aut autem",
		"completed": false,
	})

	missing := &cases.Case{
		Name:    "missingTodo",
		Request: cases.Request{URL: "${BASE_URL}/todos/0"},
	}
	missing.Expect.Status = 404
	missing.Expect.SetBody(map[string]any{})

	return &cases.File{Path: path, Cases: []*cases.Case{todo, missing}}
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, "hitcheck.config.json")
	exampleFile := filepath.Join(cwd, "example.case.yaml")
	envFile := filepath.Join(cwd, ".env")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile, envFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"Accept": "application/json"}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := exampleCases(exampleFile).Save(); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	if err := os.WriteFile(envFile, []byte("BASE_URL=https://jsonplaceholder.typicode.com\n"), 0644); err != nil {
		return fmt.Errorf("failed to create env file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitcheck project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitcheck run example.case.yaml' to execute the example checks.\n")

	return nil
}
