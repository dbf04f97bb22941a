// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"strings"
	"time"
)

// Origin tells where a pending artifact came from.
type Origin string

const (
	OriginRecorded     Origin = "recorded"
	OriginUploadedFile Origin = "uploaded-file"
)

// Artifact is the single pending audio unit awaiting submission.
type Artifact struct {
	Payload   []byte
	MIMEType  string
	Extension string // without the leading dot
	Origin    Origin
	CreatedAt time.Time
}

func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Payload)
}

// SubmissionMetadata is supplied by the embedding page once and never mutated.
// Every field is optional.
type SubmissionMetadata struct {
	QuestionID string
	SurveyID   string
	CSRFToken  string
}

// ExtensionForMIME derives a file extension from a (possibly parameterised)
// MIME type such as "audio/webm;codecs=opus".
func ExtensionForMIME(mime string) string {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0]))
	switch base {
	case "audio/webm", "video/webm":
		return "webm"
	case "audio/ogg", "application/ogg":
		return "ogg"
	case "audio/mp4", "video/mp4", "audio/x-m4a", "audio/m4a":
		return "m4a"
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav"
	default:
		return "webm"
	}
}

// MIMEForExtension is the inverse used when a selected file carries no type.
func MIMEForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "webm":
		return "audio/webm"
	case "ogg":
		return "audio/ogg"
	case "m4a", "mp4":
		return "audio/mp4"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
