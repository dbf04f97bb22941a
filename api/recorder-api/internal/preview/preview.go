// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_preview

import (
	"fmt"
	"sync"

	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
)

// ReferenceStore hands out locally resolvable references to artifact bytes.
type ReferenceStore interface {
	Create(artifact *internal_type.Artifact) (string, error)
	Revoke(ref string)
}

// Surface is whatever plays the preview back to the respondent.
type Surface interface {
	Activate(ref string, mime string)
	Deactivate()
}

// Manager keeps at most one live reference at a time.
type Manager struct {
	mu      sync.Mutex
	logger  commons.Logger
	store   ReferenceStore
	surface Surface
	current string
}

func NewManager(logger commons.Logger, store ReferenceStore, surface Surface) *Manager {
	return &Manager{logger: logger, store: store, surface: surface}
}

// Show revokes any previous reference before creating a new one.
func (m *Manager) Show(artifact *internal_type.Artifact) error {
	if artifact == nil {
		return fmt.Errorf("preview: nil artifact")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()
	ref, err := m.store.Create(artifact)
	if err != nil {
		return fmt.Errorf("preview: create reference: %w", err)
	}
	m.current = ref
	m.surface.Activate(ref, artifact.MIMEType)
	m.logger.Debugf("preview active: ref=%s, mime=%s, bytes=%d", ref, artifact.MIMEType, artifact.Size())
	return nil
}

func (m *Manager) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Manager) releaseLocked() {
	if m.current == "" {
		return
	}
	m.store.Revoke(m.current)
	m.surface.Deactivate()
	m.logger.Debugf("preview released: ref=%s", m.current)
	m.current = ""
}

// Reference returns the live reference, or "" when hidden.
func (m *Manager) Reference() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) Active() bool {
	return m.Reference() != ""
}

// NopSurface is used when the embedding page has no preview player.
type NopSurface struct{}

func (NopSurface) Activate(string, string) {}
func (NopSurface) Deactivate()             {}
