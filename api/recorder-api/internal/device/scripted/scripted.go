// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_device_scripted is a deterministic capture device that
// replays a fixed list of segments. The CLI uses it for --simulate runs and
// the tests use it everywhere a microphone would be needed.
package internal_device_scripted

import (
	"context"
	"errors"
	"sync"
	"time"

	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
)

type Device struct {
	mu        sync.Mutex
	available bool
	deny      bool
	startErr  error
	mimes     []string
	segments  [][]byte
	interval  time.Duration
	failAfter int
	failErr   error
	pcm       bool
	rate      uint32
	channels  uint16

	opened   int
	released int
	live     int
}

type Option func(*Device)

func Unavailable() Option { return func(d *Device) { d.available = false } }

// Deny makes Open fail with ErrPermissionDenied.
func Deny() Option { return func(d *Device) { d.deny = true } }

func StartError(err error) Option { return func(d *Device) { d.startErr = err } }

func MIMETypes(mimes ...string) Option { return func(d *Device) { d.mimes = mimes } }

func Segments(segments ...[]byte) Option { return func(d *Device) { d.segments = segments } }

// Interval paces segment delivery; Stop cuts pacing short but every scripted
// segment is still delivered.
func Interval(interval time.Duration) Option { return func(d *Device) { d.interval = interval } }

// FailAfter raises err on the error channel once n segments were delivered.
func FailAfter(n int, err error) Option {
	return func(d *Device) {
		d.failAfter = n
		d.failErr = err
	}
}

// PCM makes streams deliver raw LINEAR16 and advertise only audio/wav.
func PCM(sampleRate uint32, channels uint16) Option {
	return func(d *Device) {
		d.pcm = true
		d.rate = sampleRate
		d.channels = channels
		d.mimes = []string{"audio/wav"}
	}
}

func New(opts ...Option) *Device {
	d := &Device{
		available: true,
		mimes:     []string{"audio/webm;codecs=opus", "audio/webm"},
		failAfter: -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Available() bool { return d.available }

func (d *Device) Open(ctx context.Context) (internal_type.DeviceStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.available {
		return nil, internal_type.ErrUnsupported
	}
	if d.deny {
		return nil, internal_type.ErrPermissionDenied
	}
	d.mu.Lock()
	d.opened++
	d.live++
	d.mu.Unlock()

	s := &stream{
		dev:       d,
		segCh:     make(chan []byte),
		errCh:     make(chan error, 1),
		stopCh:    make(chan struct{}),
		releaseCh: make(chan struct{}),
	}
	if d.pcm {
		return &pcmStream{stream: s}, nil
	}
	return s, nil
}

// Opened counts successful Open calls.
func (d *Device) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Released counts streams whose tracks were stopped.
func (d *Device) Released() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Active reports whether any stream still holds the microphone.
func (d *Device) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live > 0
}

type stream struct {
	dev       *Device
	segCh     chan []byte
	errCh     chan error
	stopCh    chan struct{}
	releaseCh chan struct{}

	mu          sync.Mutex
	started     bool
	stopOnce    sync.Once
	releaseOnce sync.Once
}

func (s *stream) Supports(mime string) bool {
	for _, m := range s.dev.mimes {
		if m == mime {
			return true
		}
	}
	return false
}

func (s *stream) DefaultMIMEType() string {
	if len(s.dev.mimes) > 0 {
		return s.dev.mimes[0]
	}
	return "audio/webm"
}

func (s *stream) Start(mime string, timeslice time.Duration) error {
	if s.dev.startErr != nil {
		return s.dev.startErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("stream already started")
	}
	s.started = true
	go s.run()
	return nil
}

func (s *stream) run() {
	defer close(s.segCh)
	for i, seg := range s.dev.segments {
		if s.dev.failAfter == i {
			s.errCh <- s.dev.failErr
			return
		}
		if s.dev.interval > 0 {
			select {
			case <-time.After(s.dev.interval):
			case <-s.stopCh:
			case <-s.releaseCh:
				return
			}
		}
		select {
		case s.segCh <- seg:
		case <-s.releaseCh:
			return
		}
	}
	if s.dev.failAfter == len(s.dev.segments) {
		s.errCh <- s.dev.failErr
		return
	}
	select {
	case <-s.stopCh:
	case <-s.releaseCh:
	}
}

func (s *stream) Segments() <-chan []byte { return s.segCh }
func (s *stream) Errors() <-chan error    { return s.errCh }

func (s *stream) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *stream) Release() {
	s.releaseOnce.Do(func() {
		close(s.releaseCh)
		s.dev.mu.Lock()
		s.dev.released++
		s.dev.live--
		s.dev.mu.Unlock()
	})
}

type pcmStream struct {
	*stream
}

func (p *pcmStream) PCMFormat() (uint32, uint16) { return p.dev.rate, p.dev.channels }
