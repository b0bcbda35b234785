package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStage runs for every selected stage, in order, before any stage is invoked.
	PrepareStage(parentStage, stage *StageInfo) error
	// OnStageDone runs after a stage finished successfully.
	OnStageDone(stage *StageInfo, duration time.Duration) error
	// Finish runs after the pipeline is finished.
	Finish() error
}
