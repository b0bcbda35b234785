// Package lineage checks that the artifacts consumed by the selected stages are produced by a
// stage selected before them.
//
// Stages and artifacts are the vertices of a directed acyclic graph: a stage points to the
// artifacts it produces and an artifact points to the stages consuming it. An input artifact
// without a producer is external to the run: it is either left by an earlier run or misspelled.
package lineage

import (
	"log"
	"strings"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-mlpipeline/internal/store"
	"github.com/askiada/go-mlpipeline/pkg/pipeline"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

var (
	ErrUnproducedArtifact = errors.New("artifact is not produced by any selected stage")
	ErrUnknownMode        = errors.New("unknown lineage mode")
)

// Mode decides what happens to external artifacts.
type Mode string

const (
	ModeOff    Mode = "off"
	ModeWarn   Mode = "warn"
	ModeStrict Mode = "strict"
)

func ParseMode(raw string) (Mode, error) {
	switch mode := Mode(strings.ToLower(raw)); mode {
	case ModeOff, ModeWarn, ModeStrict:
		return mode, nil
	default:
		return "", errors.Wrap(ErrUnknownMode, raw)
	}
}

const (
	stagePrefix    = "stage/"
	artifactPrefix = "artifact/"
)

// Lineage is the artifact graph of the selected stages.
type Lineage struct {
	graph    graph.Graph[string, string]
	store    store.CustomStore[string, string]
	mode     Mode
	logger   *log.Logger
	external []string
}

func New(mode Mode, logger *log.Logger) *Lineage {
	st := store.NewMemoryStore[string, string]()

	return &Lineage{
		store:  st,
		graph:  graph.NewWithStore(graph.StringHash, graph.Store[string, string](st), graph.Directed(), graph.PreventCycles()),
		mode:   mode,
		logger: logger,
	}
}

func (l *Lineage) New() error {
	return nil
}

// PrepareStage adds the stage to the graph and checks its inputs against the stages added before.
func (l *Lineage) PrepareStage(_, stage *model.StageInfo) error {
	stageVertex := stagePrefix + stage.Name

	err := l.addVertex(stageVertex)
	if err != nil {
		return err
	}

	for _, ref := range stage.Inputs {
		artifact := artifactPrefix + pipeline.ParseArtifact(ref).Name

		err := l.addVertex(artifact)
		if err != nil {
			return err
		}

		producers, err := l.store.Predecessors(artifact)
		if err != nil {
			return errors.Wrapf(err, "unable to get producers of %s", ref)
		}

		if len(producers) == 0 {
			err := l.onExternal(stage.Name, ref)
			if err != nil {
				return err
			}
		}

		err = l.graph.AddEdge(artifact, stageVertex)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return errors.Wrapf(err, "unable to link %s to stage %s", ref, stage.Name)
		}
	}

	for _, name := range stage.Outputs {
		artifact := artifactPrefix + name

		err := l.addVertex(artifact)
		if err != nil {
			return err
		}

		err = l.graph.AddEdge(stageVertex, artifact)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return errors.Wrapf(err, "unable to link stage %s to %s", stage.Name, name)
		}
	}

	return nil
}

func (l *Lineage) OnStageDone(*model.StageInfo, time.Duration) error {
	return nil
}

func (l *Lineage) Finish() error {
	return nil
}

// External returns the consumed artifact references no selected stage produces.
func (l *Lineage) External() []string {
	return append([]string(nil), l.external...)
}

// Producers returns the stages producing the named artifact.
func (l *Lineage) Producers(name string) ([]string, error) {
	preds, err := l.store.Predecessors(artifactPrefix + name)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown artifact %s", name)
	}

	stages := make([]string, len(preds))
	for i, pred := range preds {
		stages[i] = strings.TrimPrefix(pred, stagePrefix)
	}

	return stages, nil
}

func (l *Lineage) addVertex(vertex string) error {
	err := l.graph.AddVertex(vertex)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrapf(err, "unable to add %s", vertex)
	}

	return nil
}

func (l *Lineage) onExternal(stage, ref string) error {
	l.external = append(l.external, ref)

	switch l.mode {
	case ModeStrict:
		return errors.Wrapf(ErrUnproducedArtifact, "stage %s consumes %s", stage, ref)
	case ModeWarn:
		if l.logger != nil {
			l.logger.Printf("stage %s consumes %s, which no selected stage produces", stage, ref)
		}
	case ModeOff:
	}

	return nil
}

var _ model.PipelineOption = (*Lineage)(nil)
