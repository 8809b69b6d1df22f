package pipeline

import "github.com/clipforge/pipeline/internal/models"

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

type routeKey struct {
	kind    models.PipelineKind
	stage   Stage
	outcome Outcome
}

// Stage chaining as data. A missing entry means the pipeline terminates at
// that stage; failures always terminate.
var routes = map[routeKey]Stage{
	{models.PipelineClip, StageImport, OutcomeCompleted}:        StageTranscription,
	{models.PipelineClip, StageTranscription, OutcomeCompleted}: StageDetection,

	{models.PipelineCaption, StageImport, OutcomeCompleted}:        StageTranscription,
	{models.PipelineCaption, StageTranscription, OutcomeCompleted}: StageCaptionExport,

	{models.PipelineReframe, StageImport, OutcomeCompleted}: StageReframe,
}

// Route returns the next stage for a finished one, or false when the
// pipeline terminates there.
func Route(kind models.PipelineKind, stage Stage, outcome Outcome) (Stage, bool) {
	if outcome != OutcomeCompleted {
		return "", false
	}
	next, ok := routes[routeKey{kind, stage, outcome}]
	return next, ok
}

// TerminalPhase is the phase a pipeline settles in when Route reports no
// next stage for a completed one.
func TerminalPhase(outcome Outcome) models.Phase {
	if outcome == OutcomeCompleted {
		return models.PhaseReady
	}
	return models.PhaseFailed
}
