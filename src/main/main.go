package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"learning-persona/src/config"
	"learning-persona/src/gui"
	"learning-persona/src/logutil"
	"learning-persona/src/runtimeinit"
	"learning-persona/src/singleinstance"
)

type mainOptions struct {
	apiURL    string
	storePath string
	verbose   bool
	openPath  string
}

func main() {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "learning-persona [file.pdf]",
		Short:         "Record subjects, build the learning persona and study PDFs with it",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.openPath = args[0]
			}
			return runGUI(cmd.Context(), *opts)
		},
	}

	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "Persona backend base URL (overrides PERSONA_API_URL)")
	cmd.Flags().StringVar(&opts.storePath, "store", "", "Path of the recorded-subjects file (overrides STORE_PATH)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	return cmd
}

func runGUI(ctx context.Context, opts mainOptions) error {
	req := singleinstance.Request{Action: singleinstance.ActionShow}
	if opts.openPath != "" {
		abs, err := filepath.Abs(opts.openPath)
		if err != nil {
			return err
		}
		opts.openPath = abs
		req = singleinstance.Request{Action: singleinstance.ActionOpen, Path: abs}
	}
	if delegated, err := delegate(ctx, singleinstance.NewClient(), req); delegated {
		return err
	}

	setupLogging := logutil.Setup
	if opts.verbose {
		setupLogging = func(bool) { logutil.SetupVerbose() }
	}

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:  config.LoadOptions{APIURLOverride: opts.apiURL, StorePathOverride: opts.storePath},
		SetupLogging: setupLogging,
	})
	if err != nil {
		return err
	}
	if !rt.Renderer.Available() {
		log.Printf("pdftoppm not found at %q; PDF pages will not render", rt.Renderer.Path)
	}

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("another instance is starting or running: %w", err)
	}
	defer srv.Close()

	log.Printf("Learning Persona started (backend %s, up=%v)", rt.Config.APIURL, rt.BackendUp)
	gui.Run(rt, gui.RunOptions{OpenPath: opts.openPath, Requests: srv.Requests()})
	return nil
}

// delegate hands the launch to a running instance. It reports true when a
// resident took the request, in which case this process should exit.
func delegate(ctx context.Context, client singleinstance.Client, req singleinstance.Request) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	delegated, err := client.Delegate(ctx, req)
	if delegated {
		if err != nil {
			return true, fmt.Errorf("running instance rejected the request: %w", err)
		}
		fmt.Println("Handed over to the running instance")
	}
	return delegated, nil
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
		for _, name := range []string{"api-url", "store", "verbose"} {
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
