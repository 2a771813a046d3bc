package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmkim/logsift/internal/catalog"
	"github.com/hmkim/logsift/internal/classifier"
	"github.com/hmkim/logsift/internal/config"
	"github.com/hmkim/logsift/internal/output"
	"github.com/hmkim/logsift/internal/pathing"
	"github.com/hmkim/logsift/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live-filter a growing log file",
	Long: `Follow a module's log file in real time, similar to 'tail -f', but
classify each appended line against the module's patterns and append only
novel lines to the result file. Content already in the file at start is
left to a regular 'filter' run.

Stops on Ctrl-C and prints the run summary.

Examples:
  logsift watch --module auth-service
  logsift watch --module billing --echo
  logsift watch --module billing --follow-rotate`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("module", "m", "", "module name (key in the pattern catalog)")
	watchCmd.Flags().StringP("input-file", "i", "", "log file to follow (default logs/<module>)")
	watchCmd.Flags().StringP("output-file", "o", "", "file to append novel lines to (default auto-generated under result/)")
	watchCmd.Flags().StringP("pattern-file", "p", "", "pattern catalog path (default patterns.json)")
	watchCmd.Flags().Bool("follow-rotate", false, "keep following when the file is renamed/removed")
	watchCmd.Flags().Bool("echo", false, "also print novel lines to stdout")

	_ = watchCmd.MarkFlagRequired("module")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	module, _ := cmd.Flags().GetString("module")
	inputFile, _ := cmd.Flags().GetString("input-file")
	outputFile, _ := cmd.Flags().GetString("output-file")
	patternFile, _ := cmd.Flags().GetString("pattern-file")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")
	echo, _ := cmd.Flags().GetBool("echo")

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

	set, err := cat.Module(module)
	if err != nil {
		return err
	}

	opts := watch.Options{
		Module:       module,
		InputPath:    resolver.Input(inputFile, module),
		OutputPath:   resolver.Output(outputFile, module, catalog.Code(catalogPath)),
		FollowRotate: followRotate,
		Classifier:   classifier.New(set),
		Logger:       logger,
	}
	if echo {
		out := cmd.OutOrStdout()
		opts.Echo = func(line string) error {
			_, err := fmt.Fprintln(out, line)
			return err
		}
	}

	watcher := watch.New(opts)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	sum, err := watcher.Run(ctx)
	if err != nil {
		return err
	}

	format := output.ParseFormat(viper.GetString("format"))
	return output.New(cmd.OutOrStdout(), format).WriteSummary(output.RunReport{
		Module:  module,
		Output:  opts.OutputPath,
		Summary: sum,
	})
}
