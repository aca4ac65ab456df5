package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"learning-persona/src/dispatch"
	"learning-persona/src/document"
	"learning-persona/src/export"
	"learning-persona/src/persona"
	"learning-persona/src/progress"
	"learning-persona/src/recording"
	"learning-persona/src/runtimeinit"
	"learning-persona/src/screenshot"
	"learning-persona/src/session"
	"learning-persona/src/viewer"
)

func newStatusCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which subjects have been recorded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), *opts, false)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), rt.Progress)
		},
	}
}

func printStatus(w io.Writer, t *progress.Tracker) error {
	for _, s := range progress.Subjects {
		done, err := t.IsRecorded(s)
		if err != nil {
			return err
		}
		state := "pending"
		if done {
			state = "recorded"
		}
		fmt.Fprintf(w, "%-8s %-13s %s\n", s.Slug(), s.Title(), state)
	}
	complete, err := t.Complete()
	if err != nil {
		return err
	}
	if complete {
		fmt.Fprintln(w, "All subjects recorded; run 'persona create'.")
	}
	return nil
}

func newRecordCmd(opts *cliOptions) *cobra.Command {
	var upload string
	cmd := &cobra.Command{
		Use:   "record <you|student|child>",
		Short: "Record a subject, optionally uploading an audio description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := progress.ParseSubject(args[0])
			if err != nil {
				return err
			}
			rt, err := bootstrap(cmd.Context(), *opts, upload != "")
			if err != nil {
				return err
			}
			flow, err := recording.NewFlow(subject, rt.Progress, rt.Backend)
			if err != nil {
				return err
			}
			return recordSubject(cmd.Context(), cmd.OutOrStdout(), flow, upload)
		},
	}
	cmd.Flags().StringVar(&upload, "upload", "", "Audio file describing the subject")
	return cmd
}

func recordSubject(ctx context.Context, w io.Writer, flow *recording.Flow, upload string) error {
	title := flow.Subject().Title()
	if upload == "" {
		if err := flow.Start(); err != nil {
			return err
		}
		if err := flow.Stop(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s recorded\n", title)
		return nil
	}

	data, err := os.ReadFile(upload)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", upload, err)
	}
	resp, err := flow.Upload(ctx, filepath.Base(upload), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s recorded as %s\n", title, resp.Role)
	if resp.TranscribedText != "" {
		fmt.Fprintf(w, "Transcript: %s\n", resp.TranscribedText)
	}
	return nil
}

func newResetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every recorded subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), *opts, false)
			if err != nil {
				return err
			}
			if err := rt.Progress.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset")
			return nil
		},
	}
}

func newCreateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the persona once every subject is recorded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), *opts, true)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if opts.verbose {
				go persona.CycleTexts(ctx, persona.LoadingInterval, func(s string) {
					fmt.Fprintf(os.Stderr, "[verbose] %s\n", s)
				})
			}
			if err := persona.Create(ctx, rt.Progress, rt.Backend); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Persona created")
			return nil
		},
	}
}

type askOptions struct {
	pdf          string
	page         int
	region       string
	screen       bool
	display      int
	mode         string
	query        string
	jsonOutput   bool
	html         bool
	audioOut     string
	copy         bool
	includeImage bool
}

func newAskCmd(opts *cliOptions) *cobra.Command {
	ask := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask the persona about a PDF page or the screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resolveQuery(ask.mode, ask.query)
			if err != nil {
				return err
			}
			sel, err := parseRegion(ask.region)
			if err != nil {
				return err
			}
			if ask.screen == (ask.pdf != "") {
				return errors.New("exactly one of --pdf or --screen is required")
			}
			rt, err := bootstrap(cmd.Context(), *opts, true)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), cmd.OutOrStdout(), rt, *ask, query, sel, opts.verbose)
		},
	}
	cmd.Flags().StringVar(&ask.pdf, "pdf", "", "PDF file to ask about")
	cmd.Flags().IntVar(&ask.page, "page", 1, "Page number (1-based)")
	cmd.Flags().StringVar(&ask.region, "region", "", "Selection as x,y,w,h in page pixels; whole page when empty")
	cmd.Flags().BoolVar(&ask.screen, "screen", false, "Capture a display instead of a PDF")
	cmd.Flags().IntVar(&ask.display, "display", 0, "Display index for --screen")
	cmd.Flags().StringVar(&ask.mode, "mode", "custom", "adapt, summarize or custom")
	cmd.Flags().StringVar(&ask.query, "query", "", "Question for custom mode")
	cmd.Flags().BoolVar(&ask.jsonOutput, "json", false, "Output the exchange as JSON")
	cmd.Flags().BoolVar(&ask.html, "html", false, "Render the answer as HTML")
	cmd.Flags().StringVar(&ask.audioOut, "audio-out", "", "Save answer audio to this file")
	cmd.Flags().BoolVar(&ask.copy, "copy", false, "Also copy the answer to the clipboard")
	cmd.Flags().BoolVar(&ask.includeImage, "include-image", false, "Keep the captured image in JSON output")
	return cmd
}

func resolveQuery(mode, query string) (string, error) {
	m, err := viewer.ParseMode(mode)
	if err != nil {
		return "", err
	}
	if p := m.Prompt(); p != "" {
		return p, nil
	}
	return query, nil
}

// parseRegion reads "x,y,w,h". An empty string means no selection.
func parseRegion(v string) (*screenshot.Region, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid region %q (want x,y,w,h)", v)
	}
	var n [4]int
	for i, p := range parts {
		val, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid region %q: %w", v, err)
		}
		n[i] = val
	}
	r := screenshot.Region{X: n[0], Y: n[1], Width: n[2], Height: n[3]}
	if r.Empty() {
		return nil, fmt.Errorf("invalid region %q: width and height must be positive", v)
	}
	return &r, nil
}

func runAsk(ctx context.Context, w io.Writer, rt *runtimeinit.Runtime, ask askOptions, query string, sel *screenshot.Region, verbose bool) error {
	var src screenshot.Source
	if ask.screen {
		src = screenshot.NewScreenSource(ask.display)
	} else {
		page, err := loadPage(ctx, rt, ask.pdf, ask.page)
		if err != nil {
			return err
		}
		src = screenshot.NewImageSource(page)
	}

	var target session.ResultTarget = session.StdoutTarget{Writer: w, HTML: ask.html, AudioPath: ask.audioOut}
	if ask.jsonOutput {
		target = session.JSONTarget{Writer: w, AudioPath: ask.audioOut, IncludeImage: ask.includeImage}
	}
	if ask.copy {
		target = multiTarget{target, session.ClipboardTarget{}}
	}

	_, err := session.Execute(ctx, session.Options{
		Query:    query,
		Deadline: rt.Dispatcher.Timeout(),
		Capture: func(ctx context.Context) (screenshot.Capture, error) {
			return rt.Capturer.Capture(src, sel)
		},
		Dispatch: rt.Dispatcher.Submit,
		Target:   target,
		Progress: stderrProgress{verbose: verbose},
	})
	return err
}

// loadPage renders one page at the viewer width so --region uses the same
// coordinates as a selection in the study viewer.
func loadPage(ctx context.Context, rt *runtimeinit.Runtime, path string, page int) (*image.RGBA, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	img, err := rt.Renderer.Render(ctx, doc, page)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s page %d: %w", doc.Name, page, err)
	}
	return document.FitWidth(img, rt.Config.ViewportWidth), nil
}

type multiTarget []session.ResultTarget

func (m multiTarget) OnSuccess(ex *dispatch.Exchange) error {
	for _, t := range m {
		if err := t.OnSuccess(ex); err != nil {
			return err
		}
	}
	return nil
}

func (m multiTarget) OnFailure(err error) error {
	for _, t := range m {
		_ = t.OnFailure(err)
	}
	return nil
}

type stderrProgress struct {
	verbose bool
}

func (p stderrProgress) StartCountdown(timeoutSeconds int) error {
	if p.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Waiting up to %ds for the persona\n", timeoutSeconds)
	}
	return nil
}

func (p stderrProgress) UpdateText(text string) error {
	if p.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Answer received (%d chars)\n", len(text))
	}
	return nil
}

func (stderrProgress) Close() error { return nil }

type feedbackOptions struct {
	query    string
	output   string
	material string
	text     string
}

func newFeedbackCmd(opts *cliOptions) *cobra.Command {
	fb := &feedbackOptions{}
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send feedback on an answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			material, err := materialDataURI(fb.material)
			if err != nil {
				return err
			}
			rt, err := bootstrap(cmd.Context(), *opts, true)
			if err != nil {
				return err
			}
			if err := sendFeedback(rt.Dispatcher, dispatch.Feedback{
				OriginalQuery: fb.query,
				Material:      material,
				Output:        fb.output,
				Text:          fb.text,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Feedback sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&fb.query, "query", "", "The question that was asked")
	cmd.Flags().StringVar(&fb.output, "output", "", "The answer being rated")
	cmd.Flags().StringVar(&fb.material, "material", "", "Image the question was about")
	cmd.Flags().StringVar(&fb.text, "text", "", "Your feedback")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

// sendFeedback posts fb and waits for the background request to finish.
func sendFeedback(d *dispatch.Dispatcher, fb dispatch.Feedback) error {
	var ferr error
	d.SubmitFeedback(fb, func(id string, err error) { ferr = err })
	d.Wait()
	return ferr
}

func materialDataURI(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("material %s is %s, not an image", path, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func newLearnCmd(opts *cliOptions) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Ask the backend to learn from collected feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), *opts, true)
			if err != nil {
				return err
			}
			resp, err := rt.Backend.Learn(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (final score %.3f)\n", resp.Status, resp.FinalScore)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	return cmd
}

func newExportCmd(opts *cliOptions) *cobra.Command {
	var from, out, title string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write exchanges saved by 'ask --json' to a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(opts.verbose)
			return exportPDF(cmd.InOrStdin(), from, out, title)
		},
	}
	cmd.Flags().StringVar(&from, "from", "-", "JSON lines file (use '-' for stdin)")
	cmd.Flags().StringVar(&out, "out", "", "PDF file to write")
	cmd.Flags().StringVar(&title, "title", "Study session", "Document title")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func exportPDF(stdin io.Reader, from, out, title string) error {
	in := stdin
	if from != "-" {
		f, err := os.Open(from)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", from, err)
		}
		defer f.Close()
		in = f
	}
	entries, err := session.ReadJSONLines(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.WritePDF(f, title, entries); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return err
	}
	return f.Close()
}
