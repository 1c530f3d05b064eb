package pipeline

import "fmt"

// Stage names the part of a run that failed.
type Stage string

const (
	StageRead   Stage = "read"   // Input file could not be opened
	StageDecode Stage = "decode" // Input is not decodable audio, or failed mid-stream
	StageWrite  Stage = "write"  // Image could not be encoded or written
)

// StageError tags a failure with the stage it came from. Use errors.As to
// recover the stage and errors.Is to match the underlying cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
