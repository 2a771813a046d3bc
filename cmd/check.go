package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmkim/logsift/internal/catalog"
	"github.com/hmkim/logsift/internal/config"
	"github.com/hmkim/logsift/internal/output"
)

var checkCmd = &cobra.Command{
	Use:   "check <pattern-file|glob>...",
	Short: "Validate pattern catalog files",
	Long: `Load each given catalog file, validate its shape, and compile every
pattern. Reports module and pattern counts per file, or the exact load
error. Glob patterns are expanded.

Exits non-zero if any catalog fails validation.

Examples:
  logsift check patterns.json
  logsift check patterns*.json
  logsift check configs/patterns_prod.json configs/patterns_stage.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	noColor, _ := cmd.Flags().GetBool("no-color")

	files, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	results := make([]output.CheckResult, 0, len(files))
	failed := 0
	for _, file := range files {
		cat, err := catalog.Load(file)
		if err != nil {
			failed++
			results = append(results, output.CheckResult{Path: file, Err: err})
			continue
		}

		patterns := 0
		for _, name := range cat.Modules() {
			set, err := cat.Module(name)
			if err != nil {
				return err
			}
			patterns += len(set.Patterns)
		}
		results = append(results, output.CheckResult{
			Path:     file,
			Modules:  len(cat.Modules()),
			Patterns: patterns,
		})
	}

	colorMode := output.ColorAuto
	if noColor {
		colorMode = output.ColorNever
	}

	format := output.ParseFormat(viper.GetString("format"))
	if err := output.New(cmd.OutOrStdout(), format).WriteChecks(results, colorMode); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d catalogs failed validation", failed, len(files))
	}
	return nil
}
