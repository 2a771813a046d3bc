package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmkim/logsift/internal/catalog"
	"github.com/hmkim/logsift/internal/config"
	"github.com/hmkim/logsift/internal/output"
	"github.com/hmkim/logsift/internal/pathing"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules defined in a pattern catalog",
	Long: `List every module in the pattern catalog with its pattern count.

Examples:
  logsift modules
  logsift modules --pattern-file patterns_prod.json --format table`,
	Args: cobra.NoArgs,
	RunE: runModules,
}

func init() {
	modulesCmd.Flags().StringP("pattern-file", "p", "", "pattern catalog path (default patterns.json)")

	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, args []string) error {
	patternFile, _ := cmd.Flags().GetString("pattern-file")

	cfg, err := config.FromViper()
	if err != nil {
		return err
	}

	resolver := &pathing.Resolver{BaseDir: cfg.BaseDir}
	if patternFile == "" {
		patternFile = cfg.PatternFile
	}
	catalogPath := resolver.PatternFile(patternFile)

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}

	names := cat.Modules()
	modules := make([]output.ModuleInfo, 0, len(names))
	for _, name := range names {
		set, err := cat.Module(name)
		if err != nil {
			return err
		}
		modules = append(modules, output.ModuleInfo{
			Name:     name,
			Patterns: len(set.Patterns),
		})
	}

	format := output.ParseFormat(viper.GetString("format"))
	return output.New(cmd.OutOrStdout(), format).WriteModules(catalogPath, modules)
}
