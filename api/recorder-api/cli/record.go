package recorder_cli

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	internal_status "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/status"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/spf13/cobra"
)

func NewRecordCmd(deps *Dependencies, answer *answerFlags) *cobra.Command {
	var simulate bool
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an answer from the microphone and submit it",
		Long:  "Asks for microphone consent, records until Enter is pressed (or --duration elapses), then lets you submit, record again or quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := newSession(deps, answer, captureDevice(deps, simulate))
			if err != nil {
				return err
			}
			defer s.ctrl.Close()
			return runRecording(ctx, deps, s, duration)
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Use a scripted device instead of the microphone")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop automatically after this long")
	return cmd
}

func runRecording(ctx context.Context, deps *Dependencies, s *session, duration time.Duration) error {
	for {
		if err := recordOnce(ctx, s, duration); err != nil {
			recoverable := errors.Is(err, internal_type.ErrPermissionDenied) ||
				errors.Is(err, internal_type.ErrEmptyRecording) ||
				errors.Is(err, internal_type.ErrCapture)
			if recoverable && s.retry(ctx) {
				continue
			}
			return err
		}

		for s.ctrl.State() == internal_type.StateHasArtifact {
			s.hint(internal_status.KeyChoiceHint)
			choice, err := s.term.ReadLine(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return nil
				}
				return err
			}
			switch strings.ToLower(choice) {
			case "s", "submit":
				if err := s.ctrl.Submit(ctx); err != nil {
					deps.Logger.Warnf("submission failed: %v", err)
					continue
				}
				s.awaitRedirect(ctx, deps.Config.RedirectDelay)
				return nil
			case "r", "again":
				if err := s.ctrl.RecordAgain(ctx); err != nil {
					return err
				}
			case "q", "quit":
				return nil
			}
		}
		if s.ctrl.Submitted() {
			return nil
		}
	}
}

func recordOnce(ctx context.Context, s *session, duration time.Duration) error {
	if err := s.ctrl.Start(ctx); err != nil {
		return err
	}
	if duration > 0 {
		select {
		case <-time.After(duration):
		case <-ctx.Done():
		}
	} else {
		s.hint(internal_status.KeyStopHint)
		if _, err := s.term.ReadLine(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			_ = s.ctrl.Reset()
			return err
		}
	}
	if s.ctrl.State() != internal_type.StateRecording {
		// the device failed while we were waiting
		return internal_type.ErrCapture
	}
	return s.ctrl.Stop(ctx)
}
