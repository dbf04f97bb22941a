package internal_status

import (
	"sync"
	"testing"

	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type captureDisplay struct {
	mu   sync.Mutex
	msgs []Message
}

func (d *captureDisplay) Show(msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func TestReporter_English(t *testing.T) {
	display := &captureDisplay{}
	r, err := NewReporter(commons.NewNopLogger(), display, "en-US")
	require.NoError(t, err)
	assert.Equal(t, language.English, r.Locale())

	controls := internal_type.ControlsFor(internal_type.StateHasArtifact, false)
	msg := r.Report(KeyServerError, LevelError, internal_type.StateHasArtifact, controls, "Internal Server Error")

	assert.Equal(t, "Server error: Internal Server Error", msg.Text)
	assert.Equal(t, internal_type.StateHasArtifact, msg.State)
	assert.True(t, msg.Controls.CanSubmit)
	require.Len(t, display.msgs, 1)
	assert.Equal(t, msg, display.msgs[0])
}

func TestReporter_Arabic(t *testing.T) {
	r, err := NewReporter(commons.NewNopLogger(), nil, "ar")
	require.NoError(t, err)
	assert.Equal(t, language.Arabic, r.Locale())

	msg := r.Report(KeySubmitted, LevelSuccess, internal_type.StateIdle, internal_type.Controls{})
	assert.Equal(t, "تم إرسال الإجابة بنجاح.", msg.Text)

	msg = r.Report(KeyUploadRejected, LevelError, internal_type.StateHasArtifact, internal_type.Controls{}, "Invalid file type")
	assert.Equal(t, "تم رفض الملف: Invalid file type", msg.Text)
}

func TestReporter_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	for _, locale := range []string{"", "not a tag", "ja"} {
		r, err := NewReporter(commons.NewNopLogger(), nil, locale)
		require.NoError(t, err)
		msg := r.Report(KeyReady, LevelInfo, internal_type.StateIdle, internal_type.Controls{})
		assert.Equal(t, "Ready to record.", msg.Text, locale)
	}
}

func TestReporter_EveryKeyTranslated(t *testing.T) {
	en, err := NewReporter(commons.NewNopLogger(), nil, "en")
	require.NoError(t, err)
	ar, err := NewReporter(commons.NewNopLogger(), nil, "ar")
	require.NoError(t, err)

	for key := range messages {
		enText := en.Report(key, LevelInfo, internal_type.StateIdle, internal_type.Controls{}, "x").Text
		arText := ar.Report(key, LevelInfo, internal_type.StateIdle, internal_type.Controls{}, "x").Text
		assert.NotEmpty(t, enText, key)
		assert.NotEqual(t, enText, arText, key)
		assert.NotEqual(t, string(key), enText, key)
	}
}

func TestReporter_SerializesConcurrentReports(t *testing.T) {
	display := &captureDisplay{}
	r, err := NewReporter(commons.NewNopLogger(), display, "en")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(KeyRecording, LevelInfo, internal_type.StateRecording, internal_type.Controls{CanStop: true})
		}()
	}
	wg.Wait()

	last, seen := r.Last()
	assert.Equal(t, 50, seen)
	assert.Len(t, display.msgs, 50)
	assert.Equal(t, KeyRecording, last.Key)
}
