package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rautio/render-loop-detector/internal/cli"
)

const version = "0.1.0"

func main() {
	opts := &cli.Options{}
	exitCode := 0

	rootCmd := &cobra.Command{
		Use:     "rld [path]",
		Short:   "Static analyzer for render-loop and reactivity bugs in component code",
		Long: `rld inspects React-style component sources for infinite re-render risks:
effects that modify their own dependencies, setters invoked during render,
unstable references in dependency lists, and related reactivity bugs.`,
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			exitCode = cli.Run(args[0], opts)
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.Verbose, "verbose", "V", false, "verbose output with per-pass details")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress everything except findings")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	flags.IntVarP(&opts.Workers, "workers", "w", 0, "parallel workers (0 = number of CPUs)")
	flags.BoolVar(&opts.JSON, "json", false, "emit diagnostics as JSON")
	flags.BoolVar(&opts.Mermaid, "mermaid", false, "emit the cross-file call graph as a Mermaid flowchart")
	flags.BoolVar(&opts.Watch, "watch", false, "re-run the analysis when source files change")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (skips the .rldrc search)")
	flags.StringVar(&opts.MinSeverity, "min-severity", "", "exit-code threshold: high|medium|low")
	flags.StringVar(&opts.MinConfidence, "min-confidence", "", "exit-code threshold: high|medium|low")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
	os.Exit(exitCode)
}
