package pipeline

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-mlpipeline/pkg/config"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

// Variables read by the tracking facility in every stage.
const (
	EnvProject  = "WANDB_PROJECT"
	EnvRunGroup = "WANDB_RUN_GROUP"
)

// Pipeline runs the selected stages one after the other.
type Pipeline struct {
	cfg       *config.Config
	invoker   model.Invoker
	logger    *log.Logger
	rootPath  string
	workDir   string
	stages    []*Stage
	hooks     []model.PipelineOption
	startTime time.Time
}

type plannedStage struct {
	stage *Stage
	info  *model.StageInfo
}

// New creates a new pipeline.
func New(cfg *config.Config, invoker model.Invoker, opts ...PipelineOption) (*Pipeline, error) {
	if cfg == nil {
		return nil, ErrConfigMustBeSet
	}

	if invoker == nil {
		return nil, ErrInvokerMustBeSet
	}

	pipe := &Pipeline{
		cfg:      cfg,
		invoker:  invoker,
		logger:   log.New(io.Discard, "", log.LstdFlags),
		rootPath: ".",
		workDir:  ".",
		stages:   Stages(),
	}

	for _, opt := range opts {
		opt(pipe)
	}

	for _, hook := range pipe.hooks {
		err := hook.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// Selection returns the stages requested by the configuration.
func (p *Pipeline) Selection() (Selection, error) {
	node, err := p.cfg.Node(ExecuteStepsKey)
	if err != nil {
		return Selection{}, errors.Wrap(err, "unable to get execution list")
	}

	return ResolveExecuteSteps(node)
}

// TrackingEnv returns the variables grouping all stages of the run in the tracking facility.
func (p *Pipeline) TrackingEnv() (map[string]string, error) {
	project, err := p.cfg.String("main.project_name")
	if err != nil {
		return nil, errors.Wrap(err, "unable to get project name")
	}

	group, err := p.cfg.String("main.experiment_name")
	if err != nil {
		return nil, errors.Wrap(err, "unable to get experiment name")
	}

	return map[string]string{
		EnvProject:  project,
		EnvRunGroup: group,
	}, nil
}

// Run invokes the selected stages in order and stops on the first error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.startTime = time.Now()

	env, err := p.TrackingEnv()
	if err != nil {
		return err
	}

	planned, err := p.plan()
	if err != nil {
		return err
	}

	for _, curr := range planned {
		err := p.runStage(ctx, curr, env)
		if err != nil {
			return errors.Wrapf(err, "stage %s", curr.stage.Name)
		}
	}

	p.logger.Printf("pipeline finished in %s", time.Since(p.startTime).Round(time.Millisecond))

	return p.finishRun()
}

// plan builds every selected stage and prepares the options, before anything is invoked.
func (p *Pipeline) plan() ([]plannedStage, error) {
	sel, err := p.Selection()
	if err != nil {
		return nil, err
	}

	planned := make([]plannedStage, 0, len(p.stages))
	parent := model.StartStage

	for _, stage := range p.stages {
		if !sel.Contains(stage.Name) {
			continue
		}

		info, err := stage.Build(p.cfg, p.workDir)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build stage %s", stage.Name)
		}

		info.Name = stage.Name
		info.Dir = filepath.Join(p.rootPath, stage.Name)
		info.EntryPoint = model.EntryPoint

		for _, hook := range p.hooks {
			err := hook.PrepareStage(parent, info)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to prepare stage %s", stage.Name)
			}
		}

		planned = append(planned, plannedStage{stage: stage, info: info})
		parent = info
	}

	return planned, nil
}

func (p *Pipeline) runStage(ctx context.Context, curr plannedStage, env map[string]string) error {
	if curr.stage.Prepare != nil {
		err := curr.stage.Prepare(p.cfg, curr.info)
		if err != nil {
			return err
		}
	}

	p.logger.Printf("running stage %s from %s", curr.info.Name, curr.info.Dir)

	start := time.Now()

	err := p.invoker.Invoke(ctx, &model.Run{
		Stage:      curr.info.Name,
		Dir:        curr.info.Dir,
		EntryPoint: curr.info.EntryPoint,
		Parameters: curr.info.Parameters,
		Env:        env,
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	p.logger.Printf("stage %s done in %s", curr.info.Name, elapsed.Round(time.Millisecond))

	for _, hook := range p.hooks {
		err := hook.OnStageDone(curr.info, elapsed)
		if err != nil {
			return errors.Wrap(err, "unable to run after stage function")
		}
	}

	return nil
}

func (p *Pipeline) finishRun() error {
	for _, hook := range p.hooks {
		err := hook.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}
