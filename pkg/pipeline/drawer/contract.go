package drawer

import (
	"time"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStage adds a stage to the pipeline drawer.
	AddStage(stageName string) error
	// AddLink adds a link between two stages, labelled with the artifacts passed along it.
	AddLink(parentStageName, childStageName string, artifacts []string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime sets the total time of the run on the stage.
	SetTotalTime(stageName string, startTime time.Time) error
	// AddMeasure adds stage durations to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
