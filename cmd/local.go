package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/voice_translator/internal/capture"
	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/playback"
	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

type localOptions struct {
	speechDir string
	upload    bool
}

func (o *localOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.speechDir, "speech-dir", "", "Synthesize every translation into this directory")
	cmd.Flags().BoolVar(&o.upload, "upload", false, "Upload the recording to the backend")
}

func newRecordCommand(debug *bool) *cobra.Command {
	var (
		opts     localOptions
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone, then transcribe and translate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocal(cmd, *debug, opts, func(ctx context.Context, wf *recorder.Workflow) error {
				if err := wf.StartRecording(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "🎙 Recording... press Ctrl-C to stop")

				var timeout <-chan time.Time
				if duration > 0 {
					timeout = time.After(duration)
				}
				select {
				case <-ctx.Done():
				case <-timeout:
				}

				rec, err := wf.StopRecording(context.WithoutCancel(ctx))
				if err != nil {
					return err
				}
				if rec == nil {
					return errors.New("nothing was recorded")
				}
				if d := capture.Duration(rec.Data); d > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s (%s)\n", humanize.Bytes(uint64(rec.Size())), d)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %s\n", humanize.Bytes(uint64(rec.Size())))
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (default: until Ctrl-C)")
	opts.bind(cmd)
	return cmd
}

func newTranslateFileCommand(debug *bool) *cobra.Command {
	var opts localOptions
	cmd := &cobra.Command{
		Use:   "translate-file <audio>",
		Short: "Transcribe and translate an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd, *debug, opts, func(ctx context.Context, wf *recorder.Workflow) error {
				rec, err := capture.FromFile(args[0])
				if err != nil {
					return err
				}
				if !capture.AllowedExtension(rec.Filename) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s may not be accepted by the backend\n", rec.Filename)
				}
				return wf.SubmitRecording(ctx, rec)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newCloneCommand(debug *bool) *cobra.Command {
	var text, reference, out string
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Speak text in the voice of a reference recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLocal(cmd, *debug, localOptions{}, func(ctx context.Context, wf *recorder.Workflow) error {
				ref, err := capture.FromFile(reference)
				if err != nil {
					return err
				}
				if _, err := wf.CloneVoice(ctx, text, ref); err != nil {
					return err
				}
				n, err := saveSlot(ctx, wf, playback.SlotCloned, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cloned voice written to %s (%s)\n", out, humanize.Bytes(uint64(n)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to speak")
	cmd.Flags().StringVar(&reference, "reference", "", "Reference audio file")
	cmd.Flags().StringVarP(&out, "out", "o", "cloned.wav", "Output file")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("reference")
	return cmd
}

// runLocal runs one session in-process: start fn, wait for the pipeline, print the result.
func runLocal(cmd *cobra.Command, debug bool, opts localOptions, fn func(ctx context.Context, wf *recorder.Workflow) error) error {
	cfg, base, err := setup(debug)
	if err != nil {
		return err
	}
	defer base.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, base.Sugar())
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	a.notifier.AddSink(newConsoleSink(cmd.ErrOrStderr()))

	wf, err := a.sessions.Create()
	if err != nil {
		return err
	}
	if err := fn(ctx, wf); err != nil {
		return err
	}
	wf.Wait()

	// дальше работаем даже после Ctrl-C, который остановил запись
	bg := context.WithoutCancel(ctx)
	printResult(cmd.OutOrStdout(), wf)

	if opts.upload {
		if res, err := wf.Upload(bg); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded: %s\n", res.Path)
		}
	}
	if opts.speechDir != "" {
		return saveSpeech(bg, cmd.OutOrStdout(), wf, opts.speechDir)
	}
	return nil
}

func printResult(w io.Writer, wf *recorder.Workflow) {
	st := wf.State()
	if st.Transcription == "" {
		return
	}
	fmt.Fprintf(w, "Transcription: %s\n", st.Transcription)
	if st.ProcessingTime != "" {
		fmt.Fprintf(w, "Processing time: %ss\n", st.ProcessingTime)
	}
	for _, l := range wf.Languages() {
		if text, ok := st.Translations[l]; ok {
			fmt.Fprintf(w, "%s: %s\n", l.Name(), text)
		}
	}
}

func saveSpeech(ctx context.Context, w io.Writer, wf *recorder.Workflow, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create speech dir: %w", err)
	}

	var errs []error
	for _, l := range wf.Languages() {
		if _, err := wf.TranslationText(l); err != nil {
			continue
		}
		h, err := wf.GenerateSpeech(ctx, l)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Name(), err))
			continue
		}
		path := filepath.Join(dir, speechFilename(l, h))
		if _, err := saveSlot(ctx, wf, playback.LanguageSlot(l), path); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "%s speech: %s\n", l.Name(), path)
	}
	return errors.Join(errs...)
}

func speechFilename(l models.Language, h playback.Handle) string {
	return "speech_" + string(l) + playback.Extension(h.MIMEType)
}

func saveSlot(ctx context.Context, wf *recorder.Workflow, slot playback.Slot, path string) (int64, error) {
	rc, _, err := wf.OpenAudio(ctx, slot)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return io.Copy(f, rc)
}

type consoleSink struct {
	w io.Writer
}

func newConsoleSink(w io.Writer) *consoleSink { return &consoleSink{w: w} }

func (s *consoleSink) Notify(_ context.Context, _ string, n models.Notification) error {
	_, err := fmt.Fprintf(s.w, "[%s] %s\n", n.Level, n.Message)
	return err
}
