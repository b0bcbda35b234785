package measure

import (
	"time"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
	startTime time.Time
}

func (pm *pipelineMeasure) New() error {
	pm.startTime = time.Now()
	pm.AddMetric(model.StartStage.Name).SetDuration(0)
	pm.AddMetric(model.EndStage.Name)

	return nil
}

func (pm *pipelineMeasure) PrepareStage(_, stage *model.StageInfo) error {
	pm.AddMetric(stage.Name)

	return nil
}

func (pm *pipelineMeasure) OnStageDone(stage *model.StageInfo, duration time.Duration) error {
	pm.GetMetric(stage.Name).SetDuration(duration)

	return nil
}

// Finish records the total duration of the run on the end stage.
func (pm *pipelineMeasure) Finish() error {
	pm.GetMetric(model.EndStage.Name).SetDuration(time.Since(pm.startTime))

	return nil
}

// PipelineMeasure records the duration of every stage in measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{Measure: measure}
}
