package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmkim/logsift/internal/catalog"
	"github.com/hmkim/logsift/internal/classifier"
	"github.com/hmkim/logsift/internal/config"
	"github.com/hmkim/logsift/internal/output"
	"github.com/hmkim/logsift/internal/pathing"
	"github.com/hmkim/logsift/internal/pipeline"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a module's log file against its known-noise patterns",
	Long: `Run one filter pass: read the module's log file line by line, drop
lines matching any of the module's patterns, and append the rest to the
result file. Output is append-only; re-running accumulates.

Paths default to the conventional layout when not given explicitly:
input logs/<module>, output result/<code>/<module>/<year>/<month>/,
patterns from patterns.json.

Examples:
  logsift filter --module auth-service
  logsift filter --module billing --input-file /var/log/billing.log
  logsift filter --module billing --pattern-file patterns_prod.json`,
	Args: cobra.NoArgs,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringP("module", "m", "", "module name (key in the pattern catalog)")
	filterCmd.Flags().StringP("input-file", "i", "", "log file to filter (default logs/<module>)")
	filterCmd.Flags().StringP("output-file", "o", "", "file to append novel lines to (default auto-generated under result/)")
	filterCmd.Flags().StringP("pattern-file", "p", "", "pattern catalog path (default patterns.json)")

	_ = filterCmd.MarkFlagRequired("module")

	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	module, _ := cmd.Flags().GetString("module")
	inputFile, _ := cmd.Flags().GetString("input-file")
	outputFile, _ := cmd.Flags().GetString("output-file")
	patternFile, _ := cmd.Flags().GetString("pattern-file")

	cfg, err := config.FromViper()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	resolver := &pathing.Resolver{BaseDir: cfg.BaseDir}
	if patternFile == "" {
		patternFile = cfg.PatternFile
	}
	catalogPath := resolver.PatternFile(patternFile)

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	// Unknown module is a hard stop before any log file is touched.
	set, err := cat.Module(module)
	if err != nil {
		return err
	}

	run := pipeline.Run{
		Module:      module,
		InputPath:   resolver.Input(inputFile, module),
		OutputPath:  resolver.Output(outputFile, module, catalog.Code(catalogPath)),
		PatternPath: catalogPath,
		Classifier:  classifier.New(set),
	}

	logger.Debug("resolved run",
		"module", run.Module,
		"input", run.InputPath,
		"output", run.OutputPath,
		"patterns", run.PatternPath)

	sum, err := pipeline.Execute(run, logger)
	if err != nil {
		return err
	}

	format := output.ParseFormat(viper.GetString("format"))
	return output.New(cmd.OutOrStdout(), format).WriteSummary(output.RunReport{
		Module:  run.Module,
		Output:  run.OutputPath,
		Summary: sum,
	})
}
