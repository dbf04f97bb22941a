// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package receiver_api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rufaelfekadu/ramsalab-light/config"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/rufaelfekadu/ramsalab-light/pkg/utils"
)

const (
	thanksPath = "/thanks"
	// room for multipart boundaries and the small form fields
	multipartOverhead int64 = 1 << 20
)

// allowedExtensions matches what the recorder's upload path accepts.
var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".webm": true,
	".ogg":  true,
	".m4a":  true,
}

type submissionApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
}

func New(cfg *config.AppConfig, logger commons.Logger) *submissionApi {
	return &submissionApi{cfg: cfg, logger: logger}
}

func isAjax(c *gin.Context) bool {
	return c.GetHeader(utils.HEADER_REQUESTED_WITH) == utils.XML_HTTP_REQUEST ||
		strings.Contains(c.GetHeader(utils.HEADER_ACCEPT), utils.MIME_JSON)
}

func (api *submissionApi) fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}

// SubmitAudio stores one recorded or uploaded answer.
func (api *submissionApi) SubmitAudio(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.cfg.MaxFileSize+multipartOverhead)
	if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.fail(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		api.fail(c, http.StatusBadRequest, "Malformed form submission")
		return
	}

	if !utils.IsEmpty(api.cfg.CSRFToken) && c.PostForm("csrf_token") != api.cfg.CSRFToken {
		api.fail(c, http.StatusBadRequest, "The CSRF token is missing or invalid.")
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		api.fail(c, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()
	if header.Size > api.cfg.MaxFileSize {
		api.fail(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	filename := header.Filename
	if utils.IsEmpty(filename) {
		filename = fmt.Sprintf("recording_%d.webm", time.Now().Unix())
		api.logger.Warnf("audio file submitted without filename, using %s", filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		api.fail(c, http.StatusBadRequest, "Invalid file type")
		return
	}

	rawQuestion := c.PostForm("question_id")
	if utils.IsEmpty(rawQuestion) {
		api.fail(c, http.StatusBadRequest, "Question ID required")
		return
	}
	questionID, err := strconv.Atoi(strings.TrimSpace(rawQuestion))
	if err != nil {
		api.fail(c, http.StatusBadRequest, "Invalid question ID")
		return
	}

	stored, err := api.save(file, strconv.Itoa(questionID), ext)
	if err != nil {
		api.logger.Errorf("upload failed for question %d: %v", questionID, err)
		api.fail(c, http.StatusInternalServerError, "Upload failed")
		return
	}
	api.logger.Infow("audio submitted",
		"question_id", questionID,
		"survey_id", c.PostForm("survey_id"),
		"file", stored,
		"bytes", header.Size,
	)

	if !isAjax(c) {
		c.Redirect(http.StatusFound, thanksPath)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "file": stored, "redirect": thanksPath})
}

func (api *submissionApi) save(src io.Reader, questionID, ext string) (string, error) {
	dir := filepath.Join(api.cfg.UploadFolder, questionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return name, dst.Close()
}

// Thanks is where successful submissions land.
func (api *submissionApi) Thanks(c *gin.Context) {
	c.String(http.StatusOK, "شكراً لمشاركتك")
}
