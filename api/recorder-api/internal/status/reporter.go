// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_status

import (
	"sync"

	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is one rendered status update together with the machine state it
// describes.
type Message struct {
	Key      Key
	Level    Level
	Text     string
	State    internal_type.State
	Controls internal_type.Controls
}

// Display presents messages to the user. Show is never called concurrently.
type Display interface {
	Show(msg Message)
}

type Reporter struct {
	logger  commons.Logger
	display Display
	printer *message.Printer
	tag     language.Tag

	mu   sync.Mutex
	last Message
	seen int
}

// NewReporter renders messages in locale (BCP 47, e.g. "ar" or "en-US"),
// falling back to English for unknown or malformed tags. A nil display
// only logs.
func NewReporter(logger commons.Logger, display Display, locale string) (*Reporter, error) {
	cat, err := newCatalog()
	if err != nil {
		return nil, err
	}
	tag := matchLocale(cat, locale)
	return &Reporter{
		logger:  logger,
		display: display,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
		tag:     tag,
	}, nil
}

func matchLocale(cat *catalog.Builder, locale string) language.Tag {
	requested, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	supported := cat.Languages()
	_, index, confidence := language.NewMatcher(supported).Match(requested)
	if confidence == language.No {
		return language.English
	}
	return supported[index]
}

func (r *Reporter) Locale() language.Tag { return r.tag }

// Text renders key without reporting it, e.g. for confirmation prompts.
func (r *Reporter) Text(key Key, args ...interface{}) string {
	return r.printer.Sprintf(string(key), args...)
}

// Report renders key, logs it and pushes it to the display. Calls are
// serialized so the display sees updates in the order they were reported.
func (r *Reporter) Report(key Key, level Level, state internal_type.State, controls internal_type.Controls, args ...interface{}) Message {
	msg := Message{
		Key:      key,
		Level:    level,
		Text:     r.printer.Sprintf(string(key), args...),
		State:    state,
		Controls: controls,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = msg
	r.seen++

	switch level {
	case LevelError:
		r.logger.Errorw("status", "key", key, "state", state.String(), "args", args)
	case LevelWarning:
		r.logger.Warnw("status", "key", key, "state", state.String(), "args", args)
	default:
		r.logger.Infow("status", "key", key, "state", state.String())
	}
	if r.display != nil {
		r.display.Show(msg)
	}
	return msg
}

// Last returns the most recent message and how many have been reported.
func (r *Reporter) Last() (Message, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.seen
}
