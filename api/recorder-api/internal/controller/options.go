package internal_controller

import (
	"time"

	internal_capture "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/audio/capture"
	internal_permission "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/permission"
	internal_preview "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/preview"
	internal_status "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/status"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	internal_upload "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/upload"
)

const DefaultRedirectDelay = 1500 * time.Millisecond

type Option func(*Controller)

// WithGate wires microphone access. Without a gate the controller rests in
// Unsupported and only accepts file selections.
func WithGate(gate *internal_permission.Gate) Option {
	return func(c *Controller) { c.gate = gate }
}

func WithEngine(engine *internal_capture.Engine) Option {
	return func(c *Controller) { c.engine = engine }
}

func WithPreview(preview *internal_preview.Manager) Option {
	return func(c *Controller) { c.preview = preview }
}

func WithUploader(uploader internal_upload.Client) Option {
	return func(c *Controller) { c.uploader = uploader }
}

func WithReporter(reporter *internal_status.Reporter) Option {
	return func(c *Controller) { c.reporter = reporter }
}

func WithNavigator(navigator internal_type.Navigator) Option {
	return func(c *Controller) { c.navigator = navigator }
}

func WithScheduler(scheduler internal_type.Scheduler) Option {
	return func(c *Controller) { c.scheduler = scheduler }
}

// WithConfirmer wires the confirmation step of RecordAgain. Without one,
// RecordAgain never discards.
func WithConfirmer(confirmer internal_type.Confirmer) Option {
	return func(c *Controller) { c.confirmer = confirmer }
}

func WithFileInput(input internal_type.FileInput) Option {
	return func(c *Controller) { c.fileInput = input }
}

func WithMetadata(meta internal_type.SubmissionMetadata) Option {
	return func(c *Controller) { c.meta = meta }
}

func WithRedirectDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.redirectDelay = d
		}
	}
}

func WithFallbackRedirect(target string) Option {
	return func(c *Controller) { c.fallback = target }
}

func WithMaxFileSize(n int64) Option {
	return func(c *Controller) { c.maxFileSize = n }
}
