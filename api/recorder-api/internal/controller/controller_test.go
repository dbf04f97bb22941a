package internal_controller

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	receiver_routers "github.com/rufaelfekadu/ramsalab-light/api/receiver-api/router"
	internal_capture "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/audio/capture"
	internal_scripted "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/device/scripted"
	internal_fileinput "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/fileinput"
	internal_permission "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/permission"
	internal_preview "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/preview"
	internal_status "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/status"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	internal_upload "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/upload"
	"github.com/rufaelfekadu/ramsalab-light/config"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsent struct {
	mu      sync.Mutex
	accept  bool
	prompts int
	denied  int
}

func (f *fakeConsent) Confirm(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts++
	return f.accept, nil
}

func (f *fakeConsent) ShowDenied() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied++
}

type fakeConfirmer struct{ answer bool }

func (f *fakeConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	return f.answer, nil
}

type fakeNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (f *fakeNavigator) Navigate(target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
}

type fakeFileInput struct{ cleared int }

func (f *fakeFileInput) Clear() { f.cleared++ }

// manualScheduler records the scheduled callback instead of running it.
type manualScheduler struct {
	mu        sync.Mutex
	delay     time.Duration
	fn        func()
	cancelled bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) internal_type.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	s.fn = f
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cancelled = true
		return true
	}
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	results []error
}

func (f *fakeUploader) Submit(ctx context.Context, artifact *internal_type.Artifact, meta internal_type.SubmissionMetadata) (*internal_upload.Result, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if n <= len(f.results) && f.results[n-1] != nil {
		return nil, f.results[n-1]
	}
	return &internal_upload.Result{Redirect: "/thanks"}, nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type lastDisplay struct {
	mu   sync.Mutex
	msgs []internal_status.Message
}

func (d *lastDisplay) Show(msg internal_status.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func (d *lastDisplay) last() internal_status.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.msgs[len(d.msgs)-1]
}

type harness struct {
	ctrl      *Controller
	device    *internal_scripted.Device
	consent   *fakeConsent
	store     *internal_preview.MemoryStore
	preview   *internal_preview.Manager
	scheduler *manualScheduler
	navigator *fakeNavigator
	input     *fakeFileInput
	display   *lastDisplay
}

func newHarness(t *testing.T, device *internal_scripted.Device, uploader internal_upload.Client, opts ...Option) *harness {
	t.Helper()
	logger := commons.NewNopLogger()
	h := &harness{
		device:    device,
		consent:   &fakeConsent{accept: true},
		store:     internal_preview.NewMemoryStore(),
		scheduler: &manualScheduler{},
		navigator: &fakeNavigator{},
		input:     &fakeFileInput{},
		display:   &lastDisplay{},
	}
	h.preview = internal_preview.NewManager(logger, h.store, internal_preview.NopSurface{})
	reporter, err := internal_status.NewReporter(logger, h.display, "en")
	require.NoError(t, err)

	base := []Option{
		WithGate(internal_permission.NewGate(logger, device, h.consent)),
		WithEngine(internal_capture.NewEngine(logger, internal_capture.WithTimeslice(10*time.Millisecond))),
		WithPreview(h.preview),
		WithUploader(uploader),
		WithReporter(reporter),
		WithNavigator(h.navigator),
		WithScheduler(h.scheduler),
		WithFileInput(h.input),
		WithMetadata(internal_type.SubmissionMetadata{QuestionID: "7", SurveyID: "2"}),
	}
	h.ctrl, err = New(logger, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.ctrl.Close() })
	return h
}

func segments() [][]byte {
	return [][]byte{[]byte("one-"), []byte("two-"), []byte("three")}
}

func wavSelection(size int) internal_fileinput.Selection {
	return internal_fileinput.Selection{
		Name:        "clip.wav",
		ContentType: "audio/wav",
		Size:        int64(size),
		Data:        bytes.Repeat([]byte{0x52}, size),
	}
}

func TestNew_RequiresUploaderAndReporter(t *testing.T) {
	_, err := New(commons.NewNopLogger())
	assert.Error(t, err)
}

func TestScenarioA_PermissionDenied(t *testing.T) {
	device := internal_scripted.New(internal_scripted.Segments(segments()...))
	h := newHarness(t, device, &fakeUploader{})
	h.consent.accept = false

	err := h.ctrl.Start(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrPermissionDenied)
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.Equal(t, 1, h.consent.denied)
	assert.Equal(t, 0, device.Opened())
	assert.Equal(t, internal_status.KeyPermissionDenied, h.display.last().Key)

	// the respondent may retry through the same prompt
	h.consent.accept = true
	require.NoError(t, h.ctrl.Start(context.Background()))
	assert.Equal(t, internal_type.StateRecording, h.ctrl.State())
	assert.Equal(t, 2, h.consent.prompts)
}

func TestStart_PlatformDenial(t *testing.T) {
	device := internal_scripted.New(internal_scripted.Deny())
	h := newHarness(t, device, &fakeUploader{})

	err := h.ctrl.Start(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrPermissionDenied)
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.Equal(t, 1, h.consent.denied)
	assert.False(t, device.Active())
}

func TestScenarioB_RecordAndSubmitThroughReceiver(t *testing.T) {
	logger := commons.NewNopLogger()
	cfg := &config.AppConfig{UploadFolder: t.TempDir(), MaxFileSize: 16 << 20}
	srv := httptest.NewServer(receiver_routers.NewEngine(cfg, logger))
	defer srv.Close()

	device := internal_scripted.New(internal_scripted.Segments(segments()...))
	h := newHarness(t, device, internal_upload.NewClient(logger, srv.URL+"/submit_audio"))

	require.NoError(t, h.ctrl.Start(context.Background()))
	require.NoError(t, h.ctrl.Stop(context.Background()))

	artifact := h.ctrl.Artifact()
	require.NotNil(t, artifact)
	assert.Equal(t, internal_type.OriginRecorded, artifact.Origin)
	assert.Equal(t, []byte("one-two-three"), artifact.Payload)
	assert.Equal(t, "webm", artifact.Extension)
	assert.True(t, h.preview.Active())
	assert.False(t, device.Active())
	assert.True(t, h.ctrl.Controls().CanSubmit)

	require.NoError(t, h.ctrl.Submit(context.Background()))
	assert.Nil(t, h.ctrl.Artifact())
	assert.True(t, h.ctrl.Submitted())
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.Equal(t, internal_type.Controls{}, h.ctrl.Controls())
	assert.False(t, h.preview.Active())
	assert.Equal(t, 0, h.store.Live())
	assert.Equal(t, "/thanks", h.ctrl.Redirect())

	// navigation waits for the success message delay
	assert.Equal(t, DefaultRedirectDelay, h.scheduler.delay)
	assert.Empty(t, h.navigator.targets)
	h.scheduler.fire()
	assert.Equal(t, []string{"/thanks"}, h.navigator.targets)

	stored, err := os.ReadDir(filepath.Join(cfg.UploadFolder, "7"))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, ".webm", filepath.Ext(stored[0].Name()))
}

func TestScenarioC_ServerErrorRetainsArtifact(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	device := internal_scripted.New(internal_scripted.Segments(segments()...))
	h := newHarness(t, device, internal_upload.NewClient(commons.NewNopLogger(), srv.URL))
	require.NoError(t, h.ctrl.Start(context.Background()))
	require.NoError(t, h.ctrl.Stop(context.Background()))
	before := h.ctrl.Artifact()

	err := h.ctrl.Submit(context.Background())
	var serverErr *internal_type.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "Internal Server Error", serverErr.Message)

	assert.Same(t, before, h.ctrl.Artifact())
	assert.Equal(t, internal_type.StateHasArtifact, h.ctrl.State())
	assert.True(t, h.ctrl.Controls().CanSubmit)
	assert.False(t, h.ctrl.Submitted())
	assert.Equal(t, "Server error: Internal Server Error", h.display.last().Text)
	assert.Equal(t, 1, hits)
}

func TestStop_EmptyRecording(t *testing.T) {
	device := internal_scripted.New()
	h := newHarness(t, device, &fakeUploader{})

	require.NoError(t, h.ctrl.Start(context.Background()))
	err := h.ctrl.Stop(context.Background())
	assert.ErrorIs(t, err, internal_type.ErrEmptyRecording)
	assert.Nil(t, h.ctrl.Artifact())
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.Equal(t, 1, device.Released())
	assert.False(t, device.Active())
}

func TestStop_NotRecording(t *testing.T) {
	h := newHarness(t, internal_scripted.New(), &fakeUploader{})
	assert.ErrorIs(t, h.ctrl.Stop(context.Background()), internal_type.ErrInvalidTransition)
	assert.Equal(t, internal_status.KeyNotRecording, h.display.last().Key)
}

func TestSubmit_SecondCallAfterSuccessIsNoop(t *testing.T) {
	uploader := &fakeUploader{}
	h := newHarness(t, internal_scripted.New(), uploader)
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(1024)))

	require.NoError(t, h.ctrl.Submit(context.Background()))
	require.NoError(t, h.ctrl.Submit(context.Background()))
	assert.Equal(t, 1, uploader.count())
	assert.Equal(t, internal_status.KeyAlreadySubmitted, h.display.last().Key)

	assert.ErrorIs(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)), internal_type.ErrAlreadySubmitted)
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), internal_type.ErrAlreadySubmitted)
}

func TestSubmit_SingleInFlight(t *testing.T) {
	uploader := &fakeUploader{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarness(t, internal_scripted.New(internal_scripted.Segments(segments()...)), uploader)
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(1024)))

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Submit(context.Background()) }()
	<-uploader.entered
	assert.Equal(t, internal_type.StateSubmitting, h.ctrl.State())

	assert.ErrorIs(t, h.ctrl.Submit(context.Background()), internal_type.ErrBusy)
	assert.Equal(t, internal_status.KeyPleaseWait, h.display.last().Key)
	assert.ErrorIs(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)), internal_type.ErrBusy)
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), internal_type.ErrBusy)
	assert.ErrorIs(t, h.ctrl.RecordAgain(context.Background()), internal_type.ErrBusy)
	assert.ErrorIs(t, h.ctrl.Reset(), internal_type.ErrBusy)

	close(uploader.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, uploader.count())
	assert.Equal(t, 0, h.device.Opened())
}

func TestSubmit_RecoverableFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		key  internal_status.Key
	}{
		{"rejected", &internal_type.UploadRejected{Message: "Invalid file type"}, internal_status.KeyUploadRejected},
		{"network", &internal_type.NetworkError{Err: errors.New("connection refused")}, internal_status.KeyNetworkError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploader := &fakeUploader{results: []error{tt.err}}
			h := newHarness(t, internal_scripted.New(), uploader)
			require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(1024)))
			artifact := h.ctrl.Artifact()

			assert.ErrorIs(t, h.ctrl.Submit(context.Background()), tt.err)
			assert.Equal(t, tt.key, h.display.last().Key)
			assert.Same(t, artifact, h.ctrl.Artifact())
			assert.True(t, h.ctrl.Controls().CanSubmit)

			// user-initiated resubmission
			require.NoError(t, h.ctrl.Submit(context.Background()))
			assert.Equal(t, 2, uploader.count())
			assert.True(t, h.ctrl.Submitted())
		})
	}
}

func TestSubmit_WithoutArtifact(t *testing.T) {
	uploader := &fakeUploader{}
	h := newHarness(t, internal_scripted.New(), uploader)
	assert.ErrorIs(t, h.ctrl.Submit(context.Background()), internal_type.ErrNoArtifact)
	assert.Equal(t, 0, uploader.count())
}

func TestChooseFile_InvalidLeavesArtifactUntouched(t *testing.T) {
	h := newHarness(t, internal_scripted.New(), &fakeUploader{})
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(1<<20)))
	accepted := h.ctrl.Artifact()
	assert.Equal(t, internal_type.OriginUploadedFile, accepted.Origin)
	ref := h.preview.Reference()

	err := h.ctrl.ChooseFile(context.Background(), internal_fileinput.Selection{
		Name: "clip.exe", ContentType: "application/octet-stream", Size: 10, Data: []byte("MZ12345678"),
	})
	var invalid *internal_type.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Same(t, accepted, h.ctrl.Artifact())
	assert.Equal(t, ref, h.preview.Reference())
	assert.Equal(t, internal_type.StateHasArtifact, h.ctrl.State())
	assert.Equal(t, 1, h.input.cleared)
	assert.Equal(t, internal_status.KeyInvalidFile, h.display.last().Key)

	err = h.ctrl.ChooseFile(context.Background(), wavSelection(16<<20+1))
	require.ErrorAs(t, err, &invalid)
	assert.True(t, invalid.TooLarge)
	assert.Equal(t, internal_status.KeyFileTooLarge, h.display.last().Key)
	assert.Equal(t, 2, h.input.cleared)
	assert.Same(t, accepted, h.ctrl.Artifact())
}

func TestChooseFile_ReplacesPreview(t *testing.T) {
	h := newHarness(t, internal_scripted.New(), &fakeUploader{})
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)))
	first := h.preview.Reference()
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(20)))

	assert.NotEqual(t, first, h.preview.Reference())
	assert.Equal(t, 1, h.store.Live())
	assert.Equal(t, 20, h.ctrl.Artifact().Size())
}

func TestChooseFile_RejectedWhileRecording(t *testing.T) {
	device := internal_scripted.New(internal_scripted.Segments(segments()...))
	h := newHarness(t, device, &fakeUploader{})
	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.ErrorIs(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)), internal_type.ErrBusy)
	assert.Equal(t, internal_type.StateRecording, h.ctrl.State())
	require.NoError(t, h.ctrl.Stop(context.Background()))
	assert.Equal(t, internal_type.OriginRecorded, h.ctrl.Artifact().Origin)
}

func TestRecordAgain(t *testing.T) {
	confirmer := &fakeConfirmer{}
	device := internal_scripted.New(internal_scripted.Segments(segments()...))
	h := newHarness(t, device, &fakeUploader{}, WithConfirmer(confirmer))
	require.NoError(t, h.ctrl.Start(context.Background()))
	require.NoError(t, h.ctrl.Stop(context.Background()))
	artifact := h.ctrl.Artifact()

	require.NoError(t, h.ctrl.RecordAgain(context.Background()))
	assert.Same(t, artifact, h.ctrl.Artifact())
	assert.Equal(t, internal_type.StateHasArtifact, h.ctrl.State())
	assert.True(t, h.preview.Active())

	confirmer.answer = true
	require.NoError(t, h.ctrl.RecordAgain(context.Background()))
	assert.Nil(t, h.ctrl.Artifact())
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.False(t, h.preview.Active())
	assert.Equal(t, 0, h.store.Live())
	assert.Equal(t, internal_status.KeyDiscarded, h.display.last().Key)
}

func TestRecordAgain_WithoutConfirmerKeepsArtifact(t *testing.T) {
	h := newHarness(t, internal_scripted.New(), &fakeUploader{})
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)))

	require.NoError(t, h.ctrl.RecordAgain(context.Background()))
	assert.NotNil(t, h.ctrl.Artifact())
}

func TestStart_WithArtifactPointsToRecordAgain(t *testing.T) {
	h := newHarness(t, internal_scripted.New(), &fakeUploader{})
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)))
	held := h.ctrl.Artifact()

	assert.ErrorIs(t, h.ctrl.Start(context.Background()), internal_type.ErrInvalidTransition)
	assert.Equal(t, internal_status.KeyRecordAgainHint, h.display.last().Key)
	assert.Equal(t, internal_type.StateHasArtifact, h.ctrl.State())
	assert.Same(t, held, h.ctrl.Artifact())
}

func TestCaptureFailureReturnsToIdle(t *testing.T) {
	device := internal_scripted.New(
		internal_scripted.Segments(segments()...),
		internal_scripted.FailAfter(1, errors.New("device unplugged")),
	)
	h := newHarness(t, device, &fakeUploader{})
	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return h.ctrl.State() == internal_type.StateIdle
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, internal_status.KeyCaptureError, h.display.last().Key)
	assert.False(t, device.Active())
	assert.Equal(t, 1, device.Released())
	assert.Nil(t, h.ctrl.Artifact())
	assert.ErrorIs(t, h.ctrl.Stop(context.Background()), internal_type.ErrInvalidTransition)
}

func TestStart_DeviceStartError(t *testing.T) {
	device := internal_scripted.New(internal_scripted.StartError(errors.New("busy")))
	h := newHarness(t, device, &fakeUploader{})

	assert.ErrorIs(t, h.ctrl.Start(context.Background()), internal_type.ErrCapture)
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.False(t, device.Active())
}

func TestUnsupportedHostStillAcceptsFiles(t *testing.T) {
	uploader := &fakeUploader{}
	h := newHarness(t, internal_scripted.New(internal_scripted.Unavailable()), uploader)
	assert.Equal(t, internal_type.StateUnsupported, h.ctrl.State())
	assert.False(t, h.ctrl.Controls().CanRecord)
	assert.True(t, h.ctrl.Controls().CanChooseFile)

	assert.ErrorIs(t, h.ctrl.Start(context.Background()), internal_type.ErrUnsupported)
	assert.Equal(t, 0, h.consent.prompts)

	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)))
	require.NoError(t, h.ctrl.Submit(context.Background()))
	assert.Equal(t, internal_type.StateUnsupported, h.ctrl.State())
	assert.Equal(t, 1, uploader.count())
}

func TestReset_ReleasesRecording(t *testing.T) {
	device := internal_scripted.New(internal_scripted.Segments(segments()...))
	h := newHarness(t, device, &fakeUploader{})
	require.NoError(t, h.ctrl.Start(context.Background()))
	require.True(t, device.Active())

	require.NoError(t, h.ctrl.Reset())
	assert.False(t, device.Active())
	assert.Equal(t, internal_type.StateIdle, h.ctrl.State())
	assert.Nil(t, h.ctrl.Artifact())
}

func TestClose_CancelsPendingRedirect(t *testing.T) {
	h := newHarness(t, internal_scripted.New(), &fakeUploader{}, WithRedirectDelay(2*time.Second))
	require.NoError(t, h.ctrl.ChooseFile(context.Background(), wavSelection(10)))
	require.NoError(t, h.ctrl.Submit(context.Background()))
	assert.Equal(t, 2*time.Second, h.scheduler.delay)

	require.NoError(t, h.ctrl.Close())
	assert.True(t, h.scheduler.cancelled)
	h.scheduler.fire()
	assert.Empty(t, h.navigator.targets)
}
