// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package internal_device_portaudio captures LINEAR16 from the default
// PortAudio input device. Streams only produce audio/wav; the capture engine
// wraps the concatenated PCM in a WAV header at the end.
package internal_device_portaudio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
)

const (
	DefaultSampleRate      = 16000
	DefaultChannels        = 1
	DefaultFramesPerBuffer = 1024
	wavMIME                = "audio/wav"
)

type Device struct {
	logger          commons.Logger
	sampleRate      uint32
	channels        uint16
	framesPerBuffer int
}

type Option func(*Device)

func WithSampleRate(rate uint32) Option {
	return func(d *Device) { d.sampleRate = rate }
}

func WithChannels(channels uint16) Option {
	return func(d *Device) { d.channels = channels }
}

func WithFramesPerBuffer(frames int) Option {
	return func(d *Device) { d.framesPerBuffer = frames }
}

func New(logger commons.Logger, opts ...Option) *Device {
	d := &Device{
		logger:          logger,
		sampleRate:      DefaultSampleRate,
		channels:        DefaultChannels,
		framesPerBuffer: DefaultFramesPerBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Available reports whether a default input device with at least one input
// channel exists.
func (d *Device) Available() bool {
	if err := portaudio.Initialize(); err != nil {
		d.logger.Warnf("portaudio init: %v", err)
		return false
	}
	defer portaudio.Terminate()
	info, err := portaudio.DefaultInputDevice()
	if err != nil || info == nil {
		return false
	}
	return info.MaxInputChannels >= int(d.channels)
}

func (d *Device) Open(ctx context.Context) (internal_type.DeviceStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: portaudio init: %v", internal_type.ErrUnsupported, err)
	}
	buf := make([]int16, d.framesPerBuffer*int(d.channels))
	paStream, err := portaudio.OpenDefaultStream(int(d.channels), 0, float64(d.sampleRate), d.framesPerBuffer, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	d.logger.Debugf("microphone opened: rate=%d, channels=%d, frames=%d", d.sampleRate, d.channels, d.framesPerBuffer)
	return &stream{
		dev:       d,
		pa:        paStream,
		buf:       buf,
		segCh:     make(chan []byte),
		errCh:     make(chan error, 1),
		stopCh:    make(chan struct{}),
		releaseCh: make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

type stream struct {
	dev *Device
	pa  *portaudio.Stream
	buf []int16

	segCh     chan []byte
	errCh     chan error
	stopCh    chan struct{}
	releaseCh chan struct{}
	done      chan struct{}

	mu          sync.Mutex
	started     bool
	stopOnce    sync.Once
	releaseOnce sync.Once
}

func (s *stream) Supports(mime string) bool { return mime == wavMIME }
func (s *stream) DefaultMIMEType() string   { return wavMIME }

func (s *stream) PCMFormat() (uint32, uint16) { return s.dev.sampleRate, s.dev.channels }

func (s *stream) Start(mime string, timeslice time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("stream already started")
	}
	if err := s.pa.Start(); err != nil {
		return err
	}
	s.started = true
	bytesPerSegment := int(float64(s.dev.sampleRate)*timeslice.Seconds()) * int(s.dev.channels) * 2
	go s.read(bytesPerSegment)
	return nil
}

// read pulls buffers until stop, flushing one segment per timeslice and the
// remainder on stop.
func (s *stream) read(bytesPerSegment int) {
	defer close(s.done)
	defer close(s.segCh)
	segment := make([]byte, 0, bytesPerSegment)
	flush := func() bool {
		if len(segment) == 0 {
			return true
		}
		select {
		case s.segCh <- segment:
			segment = make([]byte, 0, bytesPerSegment)
			return true
		case <-s.releaseCh:
			return false
		}
	}
	for {
		select {
		case <-s.stopCh:
			if err := s.pa.Stop(); err != nil {
				s.dev.logger.Warnf("stop microphone: %v", err)
			}
			flush()
			return
		case <-s.releaseCh:
			return
		default:
		}
		if err := s.pa.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			s.errCh <- err
			return
		}
		for _, sample := range s.buf {
			segment = binary.LittleEndian.AppendUint16(segment, uint16(sample))
		}
		if len(segment) >= bytesPerSegment && !flush() {
			return
		}
	}
}

func (s *stream) Segments() <-chan []byte { return s.segCh }
func (s *stream) Errors() <-chan error    { return s.errCh }

// Stop signals the read loop, which stops the PortAudio stream itself
// between two reads.
func (s *stream) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

// Release closes the stream and terminates PortAudio. The read loop exits
// first so no Read races with Close.
func (s *stream) Release() {
	s.releaseOnce.Do(func() {
		close(s.releaseCh)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.done
		}
		if err := s.pa.Close(); err != nil {
			s.dev.logger.Warnf("close microphone: %v", err)
		}
		if err := portaudio.Terminate(); err != nil {
			s.dev.logger.Warnf("portaudio terminate: %v", err)
		}
	})
}
