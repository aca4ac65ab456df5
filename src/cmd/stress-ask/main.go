package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"net"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"learning-persona/src/backend"
	"learning-persona/src/config"
	"learning-persona/src/dispatch"
	"learning-persona/src/screenshot"
	"learning-persona/src/viewer"
)

type stressOptions struct {
	n        int
	mode     string
	deadline time.Duration
	apiURL   string
}

type stressResult struct {
	ok        int32
	timeout   int32
	failed    int32
	latencies []time.Duration
	elapsed   time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-ask",
		Short:         "Fire concurrent multimodal queries at the persona backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), cmd.OutOrStdout(), *opts)
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 20, "number of concurrent queries")
	cmd.Flags().StringVar(&opts.mode, "mode", "summarize", "adapt|summarize: preset prompt to send")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 60*time.Second, "per-query timeout")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "Persona backend base URL (overrides PERSONA_API_URL)")

	return cmd
}

func runWithOptions(ctx context.Context, w io.Writer, opts stressOptions) error {
	log.SetOutput(io.Discard)
	mode, err := viewer.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{APIURLOverride: opts.apiURL})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	d := dispatch.New(backend.New(backend.Config{BaseURL: cfg.APIURL, Timeout: opts.deadline}), opts.deadline)

	uri, err := screenshot.NewCapturer(cfg.CaptureFormat, cfg.JPEGQuality).Encode(samplePage())
	if err != nil {
		return err
	}

	res := stress(ctx, d, opts.n, mode.Prompt(), uri)
	fmt.Fprintf(w, "launched=%d ok=%d timeout=%d err=%d p50=%s max=%s elapsed=%s\n",
		opts.n, res.ok, res.timeout, res.failed, percentile(res.latencies, 50), percentile(res.latencies, 100), res.elapsed)
	return nil
}

func stress(ctx context.Context, d *dispatch.Dispatcher, n int, query, imageURI string) stressResult {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res stressResult
	)
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex, err := d.Submit(ctx, query, imageURI)
			switch {
			case isTimeout(err):
				atomic.AddInt32(&res.timeout, 1)
			case err != nil:
				atomic.AddInt32(&res.failed, 1)
			default:
				atomic.AddInt32(&res.ok, 1)
				mu.Lock()
				res.latencies = append(res.latencies, ex.Finished.Sub(ex.Started))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	res.elapsed = time.Since(start)
	return res
}

// isTimeout covers both the per-query context deadline and the HTTP
// client's own timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func percentile(ds []time.Duration, p int) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sorted := slices.Clone(ds)
	slices.Sort(sorted)
	i := (len(sorted)*p + 99) / 100
	if i < 1 {
		i = 1
	}
	return sorted[i-1]
}

// samplePage is a striped stand-in for a rendered page.
func samplePage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		c := color.RGBA{R: 250, G: 250, B: 250, A: 255}
		if (y/12)%2 == 1 {
			c = color.RGBA{R: 60, G: 60, B: 60, A: 255}
		}
		for x := 0; x < 400; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
