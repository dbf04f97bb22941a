// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_permission

import (
	"context"
	"errors"
	"fmt"

	internal_type "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/type"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
)

// Gate funnels every microphone request through the consent UI. The device
// is only asked for access after the respondent explicitly agrees.
type Gate struct {
	logger  commons.Logger
	device  internal_type.CaptureDevice
	consent internal_type.ConsentUI
}

func NewGate(logger commons.Logger, device internal_type.CaptureDevice, consent internal_type.ConsentUI) *Gate {
	return &Gate{logger: logger, device: device, consent: consent}
}

// Supported reports whether a capture device exists on this host.
func (g *Gate) Supported() bool {
	return g.device != nil && g.device.Available()
}

func (g *Gate) RequestCapture(ctx context.Context) (internal_type.DeviceStream, error) {
	if !g.Supported() {
		return nil, internal_type.ErrUnsupported
	}

	accepted, err := g.consent.Confirm(ctx)
	if err != nil {
		return nil, fmt.Errorf("consent prompt: %w", err)
	}
	if !accepted {
		g.logger.Infof("microphone consent declined by respondent")
		g.consent.ShowDenied()
		return nil, internal_type.ErrPermissionDenied
	}

	stream, err := g.device.Open(ctx)
	switch {
	case err == nil:
		return stream, nil
	case errors.Is(err, internal_type.ErrUnsupported):
		return nil, err
	case errors.Is(err, internal_type.ErrPermissionDenied):
		g.logger.Warnf("platform refused microphone access: %v", err)
		g.consent.ShowDenied()
		return nil, err
	default:
		// Any other open failure is a refusal from the respondent's point of view.
		g.logger.Errorf("unable to open capture device: %v", err)
		g.consent.ShowDenied()
		return nil, fmt.Errorf("%w: %v", internal_type.ErrPermissionDenied, err)
	}
}
