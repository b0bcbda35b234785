package pipeline

import (
	"log"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

type PipelineOption func(p *Pipeline)

// PipelineRootPath sets the directory holding one sub-directory per stage.
func PipelineRootPath(rootPath string) PipelineOption {
	return func(p *Pipeline) {
		p.rootPath = rootPath
	}
}

// PipelineWorkDir sets the directory the model configuration is written to.
func PipelineWorkDir(workDir string) PipelineOption {
	return func(p *Pipeline) {
		p.workDir = workDir
	}
}

func PipelineLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// PipelineHooks registers options observing the run.
func PipelineHooks(hooks ...model.PipelineOption) PipelineOption {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks...)
	}
}

// PipelineStages replaces the default stages.
func PipelineStages(stages ...*Stage) PipelineOption {
	return func(p *Pipeline) {
		p.stages = stages
	}
}
