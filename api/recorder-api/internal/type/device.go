// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"
	"time"
)

// CaptureDevice is the platform's microphone-like input.
type CaptureDevice interface {
	// Available reports whether the host has any capture capability at all.
	Available() bool
	// Open requests access and returns an exclusively owned stream. It fails
	// with ErrPermissionDenied when the platform refuses access.
	Open(ctx context.Context) (DeviceStream, error)
}

// DeviceStream is a live device handle. Segments arrive on Segments() in
// order; after Stop the stream flushes what it still holds and closes the
// channel. Release stops every underlying track and must be safe to call
// more than once.
type DeviceStream interface {
	Supports(mime string) bool
	DefaultMIMEType() string
	Start(mime string, timeslice time.Duration) error
	Segments() <-chan []byte
	Errors() <-chan error
	Stop() error
	Release()
}

// PCMStream is implemented by streams that deliver raw little-endian 16-bit
// PCM instead of an encoded container.
type PCMStream interface {
	PCMFormat() (sampleRate uint32, channels uint16)
}

// ConsentUI is the in-page prompt shown before the platform permission
// request.
type ConsentUI interface {
	// Confirm shows the prompt and blocks until the respondent answers.
	Confirm(ctx context.Context) (bool, error)
	// ShowDenied re-surfaces the prompt after a denial so the respondent can retry.
	ShowDenied()
}

// Confirmer asks a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Navigator moves the embedding page somewhere else.
type Navigator interface {
	Navigate(target string)
}

// FileInput is the file picker the respondent uses for the upload path.
type FileInput interface {
	Clear()
}

// CancelFunc cancels a scheduled callback. It reports whether the callback
// was stopped before running.
type CancelFunc func() bool

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) CancelFunc
}

type wallClockScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler { return wallClockScheduler{} }

func (wallClockScheduler) AfterFunc(d time.Duration, f func()) CancelFunc {
	t := time.AfterFunc(d, f)
	return t.Stop
}
