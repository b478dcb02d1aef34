// Command scenario-cli is the operator CLI for the scenario engine. Unlike
// the teacher's automata-cli (an HTTP client against a REST API), it
// embeds the Engine Façade in-process and loads its Catalog from a
// directory of YAML scenario files, since this spec carries no REST
// surface (Non-goal).
//
// Usage:
//
//	scenario-cli [--catalog-dir DIR] [--json] <command> <subcommand> [flags]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arsava/scenarios/internal/catalog"
	"github.com/arsava/scenarios/internal/cli"
	"github.com/arsava/scenarios/internal/facade"
	"github.com/arsava/scenarios/internal/requester"
)

var version = "dev"

func main() {
	var catalogDir string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "scenario-cli",
		Short:         "scenario-cli — DAG scenario execution engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "./scenarios", "directory of scenario YAML files")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	var eng *facade.Facade
	facadeFn := func() *facade.Facade {
		if eng != nil {
			return eng
		}
		cat, err := catalog.LoadYAMLDir(catalogDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error: loading catalog:", err)
			os.Exit(1)
		}
		eng = facade.New(cat, requester.NewHTTPRequester(), facade.Config{Logger: slog.Default()})
		return eng
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewScenarioCmd(facadeFn, outputFn),
	)

	err := rootCmd.Execute()
	if eng != nil {
		eng.Destroy()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
