// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_controller drives one survey answer from microphone
// consent or file selection through preview to a single accepted upload.
//
// All methods are safe for concurrent use. The controller mutex is never
// held across the consent prompt, the device stop or the HTTP call; the
// guard states RequestingPermission, Stopping and Submitting make
// overlapping actions fail fast with ErrBusy instead.
package internal_controller

import (
	"context"
	"errors"
	"sync"
	"time"

	internal_capture "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/audio/capture"
	internal_fileinput "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/fileinput"
	internal_permission "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/permission"
	internal_preview "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/preview"
	internal_status "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/status"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	internal_upload "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/upload"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/rufaelfekadu/ramsalab-light/pkg/utils"
)

type Controller struct {
	logger   commons.Logger
	gate     *internal_permission.Gate
	engine   *internal_capture.Engine
	preview  *internal_preview.Manager
	uploader internal_upload.Client
	reporter *internal_status.Reporter

	navigator internal_type.Navigator
	scheduler internal_type.Scheduler
	confirmer internal_type.Confirmer
	fileInput internal_type.FileInput

	meta          internal_type.SubmissionMetadata
	redirectDelay time.Duration
	fallback      string
	maxFileSize   int64

	// component presence, fixed at construction
	canCapture   bool
	hasPreview   bool
	hasNavigator bool
	hasConfirmer bool
	hasFileInput bool

	mu             sync.Mutex
	state          internal_type.State
	artifact       *internal_type.Artifact
	session        *internal_capture.Session
	submitted      bool
	closed         bool
	redirect       string
	cancelRedirect internal_type.CancelFunc
}

func New(logger commons.Logger, opts ...Option) (*Controller, error) {
	c := &Controller{
		logger:        logger,
		redirectDelay: DefaultRedirectDelay,
		fallback:      internal_upload.DefaultRedirect,
		maxFileSize:   internal_fileinput.MaxFileSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.uploader == nil {
		return nil, errors.New("controller requires an upload client")
	}
	if c.reporter == nil {
		return nil, errors.New("controller requires a status reporter")
	}
	if c.engine == nil {
		c.engine = internal_capture.NewEngine(logger)
	}
	if c.scheduler == nil {
		c.scheduler = internal_type.NewScheduler()
	}

	c.canCapture = c.gate != nil && c.gate.Supported()
	c.hasPreview = c.preview != nil
	c.hasNavigator = c.navigator != nil
	c.hasConfirmer = c.confirmer != nil
	c.hasFileInput = c.fileInput != nil

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.restState()
	if c.canCapture {
		c.reportLocked(internal_status.KeyReady, internal_status.LevelInfo)
	} else {
		c.logger.Warnf("no capture device available, recording disabled")
		c.reportLocked(internal_status.KeyUnsupported, internal_status.LevelWarning)
	}
	return c, nil
}

func (c *Controller) restState() internal_type.State {
	if c.canCapture {
		return internal_type.StateIdle
	}
	return internal_type.StateUnsupported
}

func (c *Controller) reportLocked(key internal_status.Key, level internal_status.Level, args ...interface{}) {
	c.reporter.Report(key, level, c.state, internal_type.ControlsFor(c.state, c.submitted), args...)
}

// busyLocked reports and returns the error for an action refused in the
// current state.
func (c *Controller) busyLocked() error {
	switch {
	case c.submitted:
		c.reportLocked(internal_status.KeyAlreadySubmitted, internal_status.LevelWarning)
		return internal_type.ErrAlreadySubmitted
	case c.state == internal_type.StateSubmitting:
		c.reportLocked(internal_status.KeyPleaseWait, internal_status.LevelWarning)
		return internal_type.ErrBusy
	case c.state == internal_type.StateRequestingPermission,
		c.state == internal_type.StateRecording,
		c.state == internal_type.StateStopping:
		c.reportLocked(internal_status.KeyBusy, internal_status.LevelWarning)
		return internal_type.ErrBusy
	default:
		c.reportLocked(internal_status.KeyBusy, internal_status.LevelWarning)
		return internal_type.ErrInvalidTransition
	}
}

// Start asks for microphone consent and begins a recording once granted.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == internal_type.StateUnsupported && !c.submitted {
		c.reportLocked(internal_status.KeyUnsupported, internal_status.LevelWarning)
		c.mu.Unlock()
		return internal_type.ErrUnsupported
	}
	if c.state == internal_type.StateHasArtifact && !c.submitted && !c.closed {
		// the held answer goes only through RecordAgain's confirmation
		c.reportLocked(internal_status.KeyRecordAgainHint, internal_status.LevelWarning)
		c.mu.Unlock()
		return internal_type.ErrInvalidTransition
	}
	if c.submitted || c.closed || c.state != internal_type.StateIdle {
		err := c.busyLocked()
		c.mu.Unlock()
		return err
	}
	c.state = internal_type.StateRequestingPermission
	c.reportLocked(internal_status.KeyConsent, internal_status.LevelInfo)
	c.mu.Unlock()

	stream, err := c.gate.RequestCapture(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != internal_type.StateRequestingPermission {
		// reset or closed while the prompt was open
		if stream != nil {
			stream.Release()
		}
		return internal_type.ErrInvalidTransition
	}
	if err != nil {
		switch {
		case errors.Is(err, internal_type.ErrUnsupported):
			c.canCapture = false
			c.state = internal_type.StateUnsupported
			c.reportLocked(internal_status.KeyUnsupported, internal_status.LevelWarning)
		case errors.Is(err, internal_type.ErrPermissionDenied):
			c.state = internal_type.StateIdle
			c.reportLocked(internal_status.KeyPermissionDenied, internal_status.LevelWarning)
		default:
			c.logger.Errorf("microphone request failed: %v", err)
			c.state = c.restState()
			c.reportLocked(internal_status.KeyCaptureError, internal_status.LevelError)
		}
		return err
	}

	session, err := c.engine.Begin(ctx, stream, c.onCaptureFailure)
	if err != nil {
		c.state = c.restState()
		c.reportLocked(internal_status.KeyCaptureError, internal_status.LevelError)
		return err
	}
	c.session = session
	c.state = internal_type.StateRecording
	c.reportLocked(internal_status.KeyRecording, internal_status.LevelInfo)
	return nil
}

// Stop finalizes the active recording into the pending artifact. The device
// is released whether or not any audio was captured.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != internal_type.StateRecording {
		var err error
		if c.state == internal_type.StateStopping {
			err = c.busyLocked()
		} else {
			c.reportLocked(internal_status.KeyNotRecording, internal_status.LevelWarning)
			err = internal_type.ErrInvalidTransition
		}
		c.mu.Unlock()
		return err
	}
	session := c.session
	c.session = nil
	c.state = internal_type.StateStopping
	c.reportLocked(internal_status.KeyStopping, internal_status.LevelInfo)
	c.mu.Unlock()

	artifact, err := c.engine.End(session)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != internal_type.StateStopping {
		return internal_type.ErrInvalidTransition
	}
	if err != nil {
		c.state = c.restState()
		if errors.Is(err, internal_type.ErrEmptyRecording) {
			c.reportLocked(internal_status.KeyEmptyRecording, internal_status.LevelWarning)
		} else {
			c.reportLocked(internal_status.KeyCaptureError, internal_status.LevelError)
		}
		return err
	}
	c.replaceArtifactLocked(artifact)
	c.state = internal_type.StateHasArtifact
	c.reportLocked(internal_status.KeyRecorded, internal_status.LevelSuccess)
	return nil
}

// onCaptureFailure runs on the capture pump goroutine when the device breaks
// mid-recording. The engine has already released the stream.
func (c *Controller) onCaptureFailure(session *internal_capture.Session, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return
	}
	c.session = nil
	c.state = internal_type.StateError
	c.logger.Errorf("recording %s aborted: %v", session.ID, err)
	c.state = c.restState()
	c.reportLocked(internal_status.KeyCaptureError, internal_status.LevelError)
}

// ChooseFile validates a selected file and makes it the pending artifact.
// A rejected file leaves the current artifact untouched.
func (c *Controller) ChooseFile(ctx context.Context, sel internal_fileinput.Selection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.submitted || c.closed:
		return c.busyLocked()
	case c.state == internal_type.StateIdle,
		c.state == internal_type.StateHasArtifact,
		c.state == internal_type.StateUnsupported:
	default:
		return c.busyLocked()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	artifact, err := internal_fileinput.Validate(sel, c.maxFileSize)
	if err != nil {
		var invalid *internal_type.ValidationError
		if errors.As(err, &invalid) && invalid.TooLarge {
			c.reportLocked(internal_status.KeyFileTooLarge, internal_status.LevelError)
		} else if invalid != nil {
			c.reportLocked(internal_status.KeyInvalidFile, internal_status.LevelError, invalid.Reason)
		} else {
			c.reportLocked(internal_status.KeyInvalidFile, internal_status.LevelError, err.Error())
		}
		if c.hasFileInput {
			c.fileInput.Clear()
		}
		return err
	}
	c.logger.Infof("file selected: name=%s, mime=%s, bytes=%d", sel.Name, artifact.MIMEType, artifact.Size())
	c.replaceArtifactLocked(artifact)
	c.state = internal_type.StateHasArtifact
	c.reportLocked(internal_status.KeyFileSelected, internal_status.LevelSuccess)
	return nil
}

// Submit uploads the pending artifact. Only one upload is ever in flight;
// once an upload is accepted every later call is a no-op.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitted {
		c.reportLocked(internal_status.KeyAlreadySubmitted, internal_status.LevelInfo)
		c.mu.Unlock()
		return nil
	}
	if c.state == internal_type.StateSubmitting {
		err := c.busyLocked()
		c.mu.Unlock()
		return err
	}
	if c.closed || c.state != internal_type.StateHasArtifact || c.artifact == nil {
		c.reportLocked(internal_status.KeyNoArtifact, internal_status.LevelWarning)
		c.mu.Unlock()
		return internal_type.ErrNoArtifact
	}
	artifact := c.artifact
	c.state = internal_type.StateSubmitting
	c.reportLocked(internal_status.KeySubmitting, internal_status.LevelInfo)
	c.mu.Unlock()

	result, err := c.uploader.Submit(ctx, artifact, c.meta)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return err
	}
	if err != nil {
		c.state = internal_type.StateHasArtifact
		var (
			serverErr *internal_type.ServerError
			rejected  *internal_type.UploadRejected
		)
		switch {
		case errors.As(err, &serverErr):
			c.reportLocked(internal_status.KeyServerError, internal_status.LevelError, serverErr.Message)
		case errors.As(err, &rejected):
			c.reportLocked(internal_status.KeyUploadRejected, internal_status.LevelError, rejected.Message)
		default:
			c.reportLocked(internal_status.KeyNetworkError, internal_status.LevelError)
		}
		return err
	}

	target := c.fallback
	if result != nil && !utils.IsEmpty(result.Redirect) {
		target = result.Redirect
	}
	c.submitted = true
	c.clearArtifactLocked()
	c.state = c.restState()
	c.redirect = target
	c.reportLocked(internal_status.KeySubmitted, internal_status.LevelSuccess)
	if c.hasNavigator {
		c.cancelRedirect = c.scheduler.AfterFunc(c.redirectDelay, func() { c.navigate(target) })
	}
	return nil
}

func (c *Controller) navigate(target string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.cancelRedirect = nil
	c.mu.Unlock()
	c.logger.Infof("redirecting to %s", target)
	c.navigator.Navigate(target)
}

// RecordAgain discards the pending artifact after explicit confirmation.
// Declining leaves everything as it was.
func (c *Controller) RecordAgain(ctx context.Context) error {
	c.mu.Lock()
	if c.submitted || c.closed || c.state != internal_type.StateHasArtifact {
		err := c.busyLocked()
		c.mu.Unlock()
		return err
	}
	artifact := c.artifact
	c.mu.Unlock()

	if !c.hasConfirmer {
		c.logger.Warnf("record again requested without a confirmation prompt, keeping artifact")
		return nil
	}
	confirmed, err := c.confirmer.Confirm(ctx, c.reporter.Text(internal_status.KeyConfirmDiscard))
	if err != nil {
		return err
	}
	if !confirmed {
		c.logger.Debugf("record again declined")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != internal_type.StateHasArtifact || c.artifact != artifact {
		return internal_type.ErrInvalidTransition
	}
	c.clearArtifactLocked()
	c.state = c.restState()
	c.reportLocked(internal_status.KeyDiscarded, internal_status.LevelInfo)
	return nil
}

// Reset abandons any recording or pending artifact. It refuses while an
// upload is in flight.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.state == internal_type.StateSubmitting {
		err := c.busyLocked()
		c.mu.Unlock()
		return err
	}
	session := c.session
	c.session = nil
	c.clearArtifactLocked()
	c.state = c.restState()
	c.reportLocked(internal_status.KeyReady, internal_status.LevelInfo)
	c.mu.Unlock()

	if session != nil {
		c.engine.Discard(session)
	}
	return nil
}

// Close releases the device, the preview and any scheduled redirect. An
// upload still in flight completes but its outcome is ignored.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	session := c.session
	c.session = nil
	if c.cancelRedirect != nil {
		c.cancelRedirect()
		c.cancelRedirect = nil
	}
	c.clearArtifactLocked()
	c.state = c.restState()
	c.mu.Unlock()

	if session != nil {
		c.engine.Discard(session)
	}
	return nil
}

func (c *Controller) replaceArtifactLocked(artifact *internal_type.Artifact) {
	c.artifact = artifact
	if !c.hasPreview {
		return
	}
	if err := c.preview.Show(artifact); err != nil {
		c.logger.Warnf("unable to preview %s artifact: %v", artifact.Origin, err)
	}
}

func (c *Controller) clearArtifactLocked() {
	c.artifact = nil
	if c.hasPreview {
		c.preview.Hide()
	}
}

func (c *Controller) State() internal_type.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Controls() internal_type.Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	return internal_type.ControlsFor(c.state, c.submitted)
}

// Artifact returns the pending artifact, or nil.
func (c *Controller) Artifact() *internal_type.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

func (c *Controller) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// Redirect is the navigation target of an accepted upload.
func (c *Controller) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}
