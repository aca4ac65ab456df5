package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"learning-persona/src/config"
	"learning-persona/src/logutil"
	"learning-persona/src/runtimeinit"
)

type cliOptions struct {
	apiURL    string
	storePath string
	verbose   bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"persona"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "persona",
		Short:         "Drive the learning persona backend from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Persona backend base URL (overrides PERSONA_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.storePath, "store", "", "Path of the recorded-subjects file (overrides STORE_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(
		newStatusCmd(opts),
		newRecordCmd(opts),
		newResetCmd(opts),
		newCreateCmd(opts),
		newAskCmd(opts),
		newFeedbackCmd(opts),
		newLearnCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// bootstrap configures logging before anything else and builds the runtime.
// Commands that only touch local state pass requireBackend=false.
func bootstrap(ctx context.Context, opts cliOptions, requireBackend bool) (*runtimeinit.Runtime, error) {
	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:    config.LoadOptions{APIURLOverride: opts.apiURL, StorePathOverride: opts.storePath},
		SetupLogging:   func(bool) { setupLogging(opts.verbose) },
		RequireBackend: requireBackend,
	})
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Backend %s (up=%v), store %s\n", rt.Config.APIURL, rt.BackendUp, rt.Config.StorePath)
	}
	return rt, nil
}

func setupLogging(verbose bool) {
	if !verbose {
		log.SetOutput(io.Discard)
		return
	}
	logutil.SetupVerbose()
	fmt.Fprintf(os.Stderr, "[verbose] Starting persona CLI\n")
}

var legacyFlags = []string{
	"api-url", "store", "verbose", "upload", "pdf", "page", "region", "screen",
	"mode", "query", "json", "html", "audio-out", "copy", "include-image",
	"output", "material", "text", "from", "out", "title",
}

// normalizeLegacyArgs maps single-dash long flags to cobra's double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacyFlags {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}
