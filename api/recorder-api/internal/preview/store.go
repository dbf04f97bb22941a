// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_preview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
)

const blobScheme = "blob:"

// MemoryStore keeps artifact bytes in memory under blob:<uuid> references.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Create(artifact *internal_type.Artifact) (string, error) {
	ref := blobScheme + uuid.NewString()
	s.mu.Lock()
	s.objects[ref] = artifact.Payload
	s.mu.Unlock()
	return ref, nil
}

func (s *MemoryStore) Revoke(ref string) {
	s.mu.Lock()
	delete(s.objects, ref)
	s.mu.Unlock()
}

// Resolve returns the bytes behind a live reference.
func (s *MemoryStore) Resolve(ref string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[ref]
	return b, ok
}

// Live counts references that were created and not yet revoked.
func (s *MemoryStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// TempFileStore writes each artifact to a temporary file so an external
// player can open it. Revoke removes the file.
type TempFileStore struct {
	logger commons.Logger
	dir    string
}

func NewTempFileStore(logger commons.Logger, dir string) *TempFileStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &TempFileStore{logger: logger, dir: dir}
}

func (s *TempFileStore) Create(artifact *internal_type.Artifact) (string, error) {
	f, err := os.CreateTemp(s.dir, "preview-*."+artifact.Extension)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(artifact.Payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *TempFileStore) Revoke(ref string) {
	// only ever remove files this store created
	if !strings.HasPrefix(filepath.Base(ref), "preview-") {
		return
	}
	if err := os.Remove(ref); err != nil && !os.IsNotExist(err) {
		s.logger.Warnf("unable to remove preview file %s: %v", ref, err)
	}
}
