// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/rufaelfekadu/ramsalab-light/pkg/utils"
)

const (
	AudioField       = "audio"
	CSRFField        = "csrf_token"
	QuestionField    = "question_id"
	SurveyField      = "survey_id"
	FilenamePrefix   = "recording_"
	DefaultRedirect  = "/thanks"
	statusSuccess    = "success"
	malformedMessage = "unexpected response from server"
)

// Result of an accepted submission.
type Result struct {
	Redirect string
	File     string
}

// Client performs exactly one network submission per Submit call.
type Client interface {
	Submit(ctx context.Context, artifact *internal_type.Artifact, meta internal_type.SubmissionMetadata) (*Result, error)
}

type submissionResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	File     string `json:"file"`
}

type restyClient struct {
	logger   commons.Logger
	http     *resty.Client
	url      string
	fallback string
	timeout  time.Duration
	base     *http.Client
	clock    func() time.Time

	mu         sync.Mutex
	lastMillis int64
}

type Option func(*restyClient)

// WithTimeout bounds each submission. Zero leaves the call unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *restyClient) { c.timeout = d }
}

func WithFallbackRedirect(target string) Option {
	return func(c *restyClient) {
		if !utils.IsEmpty(target) {
			c.fallback = target
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *restyClient) { c.clock = clock }
}

// WithHTTPClient swaps the transport, e.g. for an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *restyClient) { c.base = hc }
}

func NewClient(logger commons.Logger, submitURL string, opts ...Option) Client {
	c := &restyClient{
		logger:   logger,
		url:      submitURL,
		fallback: DefaultRedirect,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.base != nil {
		c.http = resty.NewWithClient(c.base)
	} else {
		// resty's default cookie jar keeps session cookies per origin
		c.http = resty.New()
	}
	if c.timeout > 0 {
		c.http.SetTimeout(c.timeout)
	}
	c.http.
		SetRetryCount(0).
		SetHeader(utils.HEADER_REQUESTED_WITH, utils.XML_HTTP_REQUEST).
		SetHeader(utils.HEADER_ACCEPT, utils.MIME_JSON)
	return c
}

// filename returns recording_<epoch-millis>.<ext>; the millis never repeat
// within one client.
func (c *restyClient) filename(ext string) string {
	c.mu.Lock()
	ms := c.clock().UnixMilli()
	if ms <= c.lastMillis {
		ms = c.lastMillis + 1
	}
	c.lastMillis = ms
	c.mu.Unlock()
	return FilenamePrefix + strconv.FormatInt(ms, 10) + "." + ext
}

func (c *restyClient) Submit(ctx context.Context, artifact *internal_type.Artifact, meta internal_type.SubmissionMetadata) (*Result, error) {
	if artifact == nil || len(artifact.Payload) == 0 {
		return nil, internal_type.ErrNoArtifact
	}
	start := time.Now()
	defer func() { c.logger.Benchmark("upload.Submit", time.Since(start)) }()

	fields := map[string]string{}
	if v, ok := utils.OptionalField(meta.CSRFToken); ok {
		fields[CSRFField] = v
	}
	if v, ok := utils.OptionalField(meta.QuestionID); ok {
		fields[QuestionField] = v
	}
	if v, ok := utils.OptionalField(meta.SurveyID); ok {
		fields[SurveyField] = v
	}
	name := c.filename(artifact.Extension)

	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField(AudioField, name, artifact.MIMEType, bytes.NewReader(artifact.Payload)).
		SetMultipartFormData(fields).
		Post(c.url)
	if err != nil {
		c.logger.Errorw("submission failed without response", "url", c.url, "file", name, "error", err)
		return nil, &internal_type.NetworkError{Err: err}
	}

	c.logger.Debugw("submission response",
		"status", resp.StatusCode(),
		"file", name,
		"bytes", len(artifact.Payload),
		"question_id", meta.QuestionID,
		"survey_id", meta.SurveyID,
	)
	return c.interpret(resp.StatusCode(), resp.Status(), resp.Body())
}

func (c *restyClient) interpret(code int, statusLine string, body []byte) (*Result, error) {
	var parsed submissionResponse
	parseErr := json.Unmarshal(body, &parsed)

	if code < 200 || code > 299 {
		message := strings.TrimSpace(parsed.Message)
		if parseErr != nil || message == "" {
			message = statusText(code, statusLine)
		}
		return nil, &internal_type.ServerError{StatusCode: code, Message: message}
	}

	if parseErr != nil {
		c.logger.Warnf("unparseable success body: %v", parseErr)
		return nil, &internal_type.UploadRejected{Message: malformedMessage}
	}
	if parsed.Status != statusSuccess {
		message := parsed.Message
		if utils.IsEmpty(message) {
			message = fmt.Sprintf("server returned status %q", parsed.Status)
		}
		return nil, &internal_type.UploadRejected{Message: message}
	}

	redirect := parsed.Redirect
	if utils.IsEmpty(redirect) {
		redirect = c.fallback
	}
	return &Result{Redirect: redirect, File: parsed.File}, nil
}

// statusText strips the numeric code from a status line like
// "500 Internal Server Error".
func statusText(code int, statusLine string) string {
	text := strings.TrimSpace(strings.TrimPrefix(statusLine, strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	if text == "" {
		text = "HTTP " + strconv.Itoa(code)
	}
	return text
}
