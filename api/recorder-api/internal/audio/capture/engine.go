// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
)

const DefaultTimeslice = time.Second

// PreferredMIMETypes is tried in order at Begin; the first supported entry
// becomes the artifact's MIME type.
var PreferredMIMETypes = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/ogg;codecs=opus",
	"audio/mp4",
	"audio/wav",
}

// FailureFunc is called at most once when the device breaks mid-capture.
type FailureFunc func(session *Session, err error)

// Session is one capture attempt. It owns its device stream exclusively
// until End, Discard or a device failure releases it.
type Session struct {
	ID        string
	MIMEType  string
	StartedAt time.Time

	mu       sync.Mutex
	stream   internal_type.DeviceStream
	segments [][]byte
	err      error
	ended    bool

	pumpDone    chan struct{}
	releaseOnce sync.Once
	onFailure   FailureFunc
}

// Segments returns how many segments have been appended so far.
func (s *Session) Segments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

func (s *Session) release() {
	s.releaseOnce.Do(s.stream.Release)
}

type Engine struct {
	logger     commons.Logger
	candidates []string
	timeslice  time.Duration
	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time
}

type Option func(*Engine)

func WithTimeslice(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeslice = d
		}
	}
}

func WithMIMECandidates(candidates ...string) Option {
	return func(e *Engine) {
		if len(candidates) > 0 {
			e.candidates = candidates
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

func NewEngine(logger commons.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:     logger,
		candidates: PreferredMIMETypes,
		timeslice:  DefaultTimeslice,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// negotiate picks the first candidate the stream supports, falling back to
// whatever the device produces by default.
func (e *Engine) negotiate(stream internal_type.DeviceStream) string {
	for _, mime := range e.candidates {
		if stream.Supports(mime) {
			return mime
		}
	}
	return stream.DefaultMIMEType()
}

// Begin starts capturing from stream. On any error the stream is released
// before returning.
func (e *Engine) Begin(ctx context.Context, stream internal_type.DeviceStream, onFailure FailureFunc) (*Session, error) {
	if err := ctx.Err(); err != nil {
		stream.Release()
		return nil, err
	}
	mime := e.negotiate(stream)
	if err := stream.Start(mime, e.timeslice); err != nil {
		stream.Release()
		return nil, fmt.Errorf("%w: start device: %v", internal_type.ErrCapture, err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		MIMEType:  mime,
		StartedAt: e.clock(),
		stream:    stream,
		pumpDone:  make(chan struct{}),
		onFailure: onFailure,
	}
	go e.pump(s)
	e.logger.Debugf("capture session started: session=%s, mime=%s, timeslice=%s", s.ID, mime, e.timeslice)
	return s, nil
}

// pump appends segments strictly in arrival order until the device closes
// its segment channel.
func (e *Engine) pump(s *Session) {
	defer close(s.pumpDone)
	segments := s.stream.Segments()
	errs := s.stream.Errors()
	for {
		select {
		case data, ok := <-segments:
			if !ok {
				// a device reports its error before closing the channel
				select {
				case err, ok := <-errs:
					if ok && err != nil {
						e.fail(s, err)
					}
				default:
				}
				return
			}
			if len(data) == 0 {
				continue
			}
			// Copy to avoid caller mutations.
			buf := make([]byte, len(data))
			copy(buf, data)
			s.mu.Lock()
			s.segments = append(s.segments, buf)
			s.mu.Unlock()
		case err, ok := <-errs:
			if !ok || err == nil {
				errs = nil
				continue
			}
			e.fail(s, err)
			return
		}
	}
}

func (e *Engine) fail(s *Session, cause error) {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = fmt.Errorf("%w: %v", internal_type.ErrCapture, cause)
	s.segments = nil
	notify := !s.ended
	err := s.err
	s.mu.Unlock()

	s.release()
	e.logger.Errorf("capture session %s invalidated: %v", s.ID, cause)
	if notify && s.onFailure != nil {
		s.onFailure(s, err)
	}
}

// End stops the device, waits for every pending segment to be appended and
// finalizes the session into an artifact. The stream is released on every
// path.
func (e *Engine) End(s *Session) (*internal_type.Artifact, error) {
	start := time.Now()
	defer func() { e.logger.Benchmark("capture.End", time.Since(start)) }()

	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	stopErr := s.stream.Stop()
	if stopErr != nil {
		e.logger.Warnf("device stop for session %s: %v", s.ID, stopErr)
	}
	<-s.pumpDone
	s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if stopErr != nil && len(s.segments) == 0 {
		return nil, fmt.Errorf("%w: stop device: %v", internal_type.ErrCapture, stopErr)
	}
	if len(s.segments) == 0 {
		return nil, internal_type.ErrEmptyRecording
	}

	var payload bytes.Buffer
	for _, seg := range s.segments {
		payload.Write(seg)
	}
	data := payload.Bytes()
	if pcm, ok := s.stream.(internal_type.PCMStream); ok && internal_type.ExtensionForMIME(s.MIMEType) == "wav" {
		sampleRate, channels := pcm.PCMFormat()
		data = createWAVFile(data, sampleRate, channels)
	}

	e.logger.Infof("capture session finalized: session=%s, segments=%d, bytes=%d, duration=%s",
		s.ID, len(s.segments), len(data), e.clock().Sub(s.StartedAt).Round(time.Millisecond))
	s.segments = nil

	return &internal_type.Artifact{
		Payload:   data,
		MIMEType:  s.MIMEType,
		Extension: internal_type.ExtensionForMIME(s.MIMEType),
		Origin:    internal_type.OriginRecorded,
		CreatedAt: e.clock(),
	}, nil
}

// Discard throws the session away without producing an artifact.
func (e *Engine) Discard(s *Session) {
	s.mu.Lock()
	s.ended = true
	s.segments = nil
	s.mu.Unlock()

	if err := s.stream.Stop(); err != nil {
		e.logger.Debugf("device stop on discard for session %s: %v", s.ID, err)
	}
	s.release()
	e.logger.Debugf("capture session discarded: session=%s", s.ID)
}
