// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_fileinput

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
)

const MaxFileSize int64 = 16 << 20

var (
	acceptedMIMETypes = map[string]bool{
		"audio/wav":  true,
		"audio/mp3":  true,
		"audio/webm": true,
		"audio/ogg":  true,
		"audio/mpeg": true,
	}
	acceptedExtensions = map[string]bool{
		"wav":  true,
		"mp3":  true,
		"webm": true,
		"ogg":  true,
		"m4a":  true,
	}
)

// Selection is a file picked through the upload path.
type Selection struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func baseMIME(ct string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
}

// Accepted reports whether the type or the extension is on the allow-list.
func Accepted(name, contentType string) bool {
	return acceptedMIMETypes[baseMIME(contentType)] || acceptedExtensions[extension(name)]
}

// Validate turns a selection into an artifact, or explains why it can't.
// maxSize <= 0 applies MaxFileSize.
func Validate(sel Selection, maxSize int64) (*internal_type.Artifact, error) {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	if !Accepted(sel.Name, sel.ContentType) {
		return nil, &internal_type.ValidationError{
			Reason: fmt.Sprintf("unsupported file type %q (%s)", sel.Name, sel.ContentType),
		}
	}
	// the reported size may be stale; the bytes in hand always count
	size := max(sel.Size, int64(len(sel.Data)))
	if size > maxSize {
		return nil, &internal_type.ValidationError{
			Reason:   fmt.Sprintf("file is %d bytes, limit is %d", size, maxSize),
			TooLarge: true,
		}
	}
	if len(sel.Data) == 0 {
		return nil, &internal_type.ValidationError{Reason: "file is empty"}
	}

	ext := extension(sel.Name)
	if !acceptedExtensions[ext] {
		ext = internal_type.ExtensionForMIME(sel.ContentType)
	}
	mime := baseMIME(sel.ContentType)
	if mime == "" || !strings.HasPrefix(mime, "audio/") {
		mime = internal_type.MIMEForExtension(ext)
	}
	return &internal_type.Artifact{
		Payload:   sel.Data,
		MIMEType:  mime,
		Extension: ext,
		Origin:    internal_type.OriginUploadedFile,
		CreatedAt: time.Now(),
	}, nil
}

// FromPath builds a selection from a file on disk. Files above maxSize are
// reported without being read.
func FromPath(path string, maxSize int64) (Selection, error) {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil {
		return Selection{}, err
	}
	if info.IsDir() {
		return Selection{}, fmt.Errorf("%s is a directory", path)
	}
	sel := Selection{Name: filepath.Base(path), Size: info.Size()}
	if info.Size() > maxSize {
		return sel, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Selection{}, err
	}
	defer f.Close()
	data, err := readLimited(f, maxSize)
	if err != nil {
		return Selection{}, err
	}
	if n := int64(len(data)); n > maxSize {
		// grew after stat
		sel.Size = n
		return sel, nil
	}
	sel.Data = data
	sel.ContentType = mimetype.Detect(sel.Data).String()
	return sel, nil
}

// readLimited reads at most maxSize+1 bytes so an over-limit source is
// detectable without buffering all of it.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxSize+1))
}
