// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported       = errors.New("audio capture is not supported on this host")
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrEmptyRecording    = errors.New("recording captured no audio")
	ErrCapture           = errors.New("audio capture failed")
	ErrBusy              = errors.New("another operation is in progress")
	ErrNoArtifact        = errors.New("no recording or file to submit")
	ErrAlreadySubmitted  = errors.New("response already submitted")
	ErrInvalidTransition = errors.New("action not allowed in current state")
)

// ValidationError rejects a selected file before it becomes an artifact.
type ValidationError struct {
	Reason   string
	TooLarge bool
}

func (e *ValidationError) Error() string { return "invalid audio file: " + e.Reason }

// ServerError is a non-2xx response from the submission endpoint.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// UploadRejected is a 2xx response whose status field is not "success".
type UploadRejected struct {
	Message string
}

func (e *UploadRejected) Error() string { return "upload rejected: " + e.Message }

// NetworkError means no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
