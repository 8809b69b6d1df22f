package models

import "fmt"

// PipelineKind selects which processing pipeline a project runs through.
type PipelineKind string

const (
	PipelineClip    PipelineKind = "clip"
	PipelineCaption PipelineKind = "caption"
	PipelineReframe PipelineKind = "reframe"
)

// Phase is the lifecycle phase of a project within its pipeline.
type Phase string

const (
	PhaseCreated      Phase = "CREATED"
	PhaseIngesting    Phase = "INGESTING"
	PhaseImporting    Phase = "IMPORTING"
	PhaseTranscribing Phase = "TRANSCRIBING"
	PhaseDetecting    Phase = "DETECTING"
	PhaseRendering    Phase = "RENDERING"
	PhaseReframing    Phase = "REFRAMING"
	PhaseReady        Phase = "READY"
	PhaseFailed       Phase = "FAILED"
	PhaseError        Phase = "ERROR"
)

// Legal forward transitions per pipeline kind. FAILED is reachable from any
// non-terminal phase on an input error, ERROR on an unexpected one, so those
// two are handled in CanTransition rather than listed per phase.
var phaseTransitions = map[PipelineKind]map[Phase][]Phase{
	PipelineClip: {
		PhaseCreated:      {PhaseIngesting, PhaseImporting},
		PhaseIngesting:    {PhaseImporting, PhaseTranscribing},
		PhaseImporting:    {PhaseTranscribing},
		PhaseTranscribing: {PhaseDetecting},
		PhaseDetecting:    {PhaseReady},
	},
	PipelineCaption: {
		PhaseCreated:      {PhaseIngesting, PhaseImporting},
		PhaseIngesting:    {PhaseImporting, PhaseTranscribing},
		PhaseImporting:    {PhaseTranscribing},
		PhaseTranscribing: {PhaseRendering},
		PhaseRendering:    {PhaseReady},
	},
	PipelineReframe: {
		PhaseCreated:   {PhaseIngesting, PhaseImporting},
		PhaseIngesting: {PhaseImporting, PhaseReframing},
		PhaseImporting: {PhaseReframing},
		PhaseReframing: {PhaseReady},
	},
}

func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseFailed || p == PhaseError
}

// CanTransition reports whether moving from -> to is legal for the given
// pipeline kind.
func CanTransition(kind PipelineKind, from, to Phase) bool {
	if to == PhaseFailed || to == PhaseError {
		return from != PhaseFailed && from != PhaseError
	}
	allowed, ok := phaseTransitions[kind]
	if !ok {
		return false
	}
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the next phase.
func Transition(kind PipelineKind, from, to Phase) (Phase, error) {
	if !CanTransition(kind, from, to) {
		return from, fmt.Errorf("illegal %s pipeline transition %s -> %s", kind, from, to)
	}
	return to, nil
}
