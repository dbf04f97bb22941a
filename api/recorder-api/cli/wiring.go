package recorder_cli

import (
	"context"
	"time"

	internal_capture "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/audio/capture"
	internal_controller "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/controller"
	internal_device_portaudio "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/device/portaudio"
	internal_device_scripted "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/device/scripted"
	internal_permission "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/permission"
	internal_preview "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/preview"
	internal_status "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/status"
	internal_terminal "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/terminal"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	internal_upload "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/upload"
)

type session struct {
	ctrl     *internal_controller.Controller
	term     *internal_terminal.Terminal
	reporter *internal_status.Reporter
}

// simulatedSegments stand in for three one-second chunks of audio.
func simulatedSegments() [][]byte {
	return [][]byte{
		[]byte("segment-1;"),
		[]byte("segment-2;"),
		[]byte("segment-3;"),
	}
}

func newSession(deps *Dependencies, answer *answerFlags, device internal_type.CaptureDevice) (*session, error) {
	cfg := deps.Config
	logger := deps.Logger

	texts, err := internal_status.NewReporter(logger, nil, cfg.Locale)
	if err != nil {
		return nil, err
	}
	term := internal_terminal.New(deps.In, deps.Out, texts.Text(internal_status.KeyConsent))
	reporter, err := internal_status.NewReporter(logger, term, cfg.Locale)
	if err != nil {
		return nil, err
	}

	opts := []internal_controller.Option{
		internal_controller.WithEngine(internal_capture.NewEngine(logger, internal_capture.WithTimeslice(cfg.SegmentInterval))),
		internal_controller.WithPreview(internal_preview.NewManager(logger, internal_preview.NewTempFileStore(logger, ""), term)),
		internal_controller.WithUploader(internal_upload.NewClient(logger, cfg.SubmitURL,
			internal_upload.WithTimeout(cfg.UploadTimeout),
			internal_upload.WithFallbackRedirect(cfg.FallbackRedirect),
		)),
		internal_controller.WithReporter(reporter),
		internal_controller.WithNavigator(term),
		internal_controller.WithConfirmer(term.Confirmer()),
		internal_controller.WithFileInput(term),
		internal_controller.WithMetadata(internal_type.SubmissionMetadata{
			QuestionID: answer.questionID,
			SurveyID:   answer.surveyID,
			CSRFToken:  answer.csrfToken,
		}),
		internal_controller.WithRedirectDelay(cfg.RedirectDelay),
		internal_controller.WithFallbackRedirect(cfg.FallbackRedirect),
		internal_controller.WithMaxFileSize(cfg.MaxFileSize),
	}
	if device != nil {
		opts = append(opts, internal_controller.WithGate(internal_permission.NewGate(logger, device, term)))
	}
	ctrl, err := internal_controller.New(logger, opts...)
	if err != nil {
		return nil, err
	}
	return &session{ctrl: ctrl, term: term, reporter: reporter}, nil
}

func captureDevice(deps *Dependencies, simulate bool) internal_type.CaptureDevice {
	if simulate {
		return internal_device_scripted.New(
			internal_device_scripted.Segments(simulatedSegments()...),
			internal_device_scripted.Interval(deps.Config.SegmentInterval),
		)
	}
	return internal_device_portaudio.New(deps.Logger)
}

func (s *session) hint(key internal_status.Key) {
	s.term.Print(s.reporter.Text(key))
}

func (s *session) retry(ctx context.Context) bool {
	ok, err := s.term.Confirmer().Confirm(ctx, s.reporter.Text(internal_status.KeyTryAgain))
	return err == nil && ok
}

// awaitRedirect blocks until the scheduled navigation ran, so the process
// does not exit before the success message had its delay.
func (s *session) awaitRedirect(ctx context.Context, delay time.Duration) {
	if !s.ctrl.Submitted() {
		return
	}
	select {
	case <-s.term.Navigations():
	case <-ctx.Done():
	case <-time.After(delay + time.Second):
	}
}
