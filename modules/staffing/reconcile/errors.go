package reconcile

import "fmt"

type Stage string

const (
	StageSchema    Stage = "schema"
	StageReconcile Stage = "reconcile"
)

// StageError marks where a run failed; everything in StageReconcile has been
// rolled back.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
