// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

// State is the recorder controller's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateRecording
	StateStopping
	StateHasArtifact
	StateSubmitting
	StateUnsupported
	// StateError is transient; the controller collapses it to its rest state
	// right after releasing resources.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting-permission"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateHasArtifact:
		return "has-artifact"
	case StateSubmitting:
		return "submitting"
	case StateUnsupported:
		return "unsupported"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Controls is the enabled/disabled snapshot of the user-facing actions.
type Controls struct {
	CanRecord      bool
	CanStop        bool
	CanChooseFile  bool
	CanSubmit      bool
	CanRecordAgain bool
}

// ControlsFor derives the control snapshot from a state and whether
// submission has been permanently disabled.
func ControlsFor(s State, submitted bool) Controls {
	if submitted {
		return Controls{}
	}
	switch s {
	case StateIdle:
		return Controls{CanRecord: true, CanChooseFile: true}
	case StateRecording:
		return Controls{CanStop: true}
	case StateHasArtifact:
		return Controls{CanChooseFile: true, CanSubmit: true, CanRecordAgain: true}
	case StateUnsupported:
		return Controls{CanChooseFile: true}
	default:
		return Controls{}
	}
}
