package generator

// Stage is one named step of the generation workflow, surfaced to the
// caller for progress display. Transitions are strictly sequential and
// forward-only.
type Stage string

const (
	StageUploading  Stage = "uploading"
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageSaving     Stage = "saving"
	StageCreated    Stage = "created"
)

// ProgressFunc receives each stage right before the workflow suspends
// on the corresponding external call.
type ProgressFunc func(stage Stage)
