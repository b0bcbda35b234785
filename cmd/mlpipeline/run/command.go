// Package run is the command running the pipeline stages selected by the configuration.
package run

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/youta-t/flarc"

	"github.com/askiada/go-mlpipeline/pkg/config"
	"github.com/askiada/go-mlpipeline/pkg/pipeline"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/drawer"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/invoker"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/lineage"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/measure"
	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

type Flags struct {
	ConfigDir  string `flag:"config-dir" metavar:"DIR" help:"Directory holding the configuration file."`
	ConfigName string `flag:"config-name" metavar:"NAME" help:"Configuration file name, without the .yaml extension."`
	Root       string `flag:"root" metavar:"DIR" help:"Directory holding one sub-directory per stage. Defaults to the current directory."`
	WorkDir    string `flag:"workdir" metavar:"DIR" help:"Directory where the model configuration is written. Defaults to the current directory."`

	MLflow     string `flag:"mlflow" metavar:"PATH" help:"MLflow executable."`
	EnvManager string `flag:"env-manager" metavar:"local|virtualenv|conda" help:"Environment manager passed to mlflow run."`
	Experiment string `flag:"experiment" metavar:"NAME" help:"MLflow experiment the stage runs are recorded in."`

	Lineage string `flag:"lineage" metavar:"off|warn|strict" help:"Check that consumed artifacts are produced by a selected stage."`
	Draw    string `flag:"draw" metavar:"FILE" help:"Write the executed stages as a Graphviz DOT file."`
	RankDir string `flag:"draw-direction" metavar:"LR|TB|RL|BT" help:"Direction of the drawing."`
	Summary bool   `flag:"summary" help:"Print the duration of each stage when the run succeeds."`
}

const ARG_OVERRIDE = "OVERRIDE"

// InvokerFactory builds the invoker starting the stages.
type InvokerFactory func(flags Flags, logger *log.Logger) model.Invoker

// MLflowInvoker starts the stages with "mlflow run".
func MLflowInvoker(flags Flags, logger *log.Logger) model.Invoker {
	return invoker.NewMLflow(
		invoker.WithExecutable(flags.MLflow),
		invoker.WithEnvManager(flags.EnvManager),
		invoker.WithExperimentName(flags.Experiment),
		invoker.WithLogger(logger),
	)
}

func New(newInvoker InvokerFactory) (flarc.Command, error) {
	return flarc.NewCommand(
		"run the machine learning pipeline",
		Flags{
			ConfigDir:  ".",
			ConfigName: "config",
			Root:       ".",
			WorkDir:    ".",
			MLflow:     invoker.DefaultExecutable,
			Lineage:    string(lineage.ModeOff),
			RankDir:    "LR",
		},
		flarc.Args{
			{
				Name: ARG_OVERRIDE, Required: false, Repeatable: true,
				Help: "Override a configuration value: key=value, +key=value, ++key=value or ~key.",
			},
		},
		Task(newInvoker),
		flarc.WithDescription(`
Run the stages listed in main.execute_steps, in the fixed order

    download, preprocess, check_data, segregate, random_forest, evaluate

Each stage is started with "mlflow run <root>/<stage>". Stages missing from the list are skipped.

main.execute_steps is either a list or a comma separated string:

    {{ .Command }} main.execute_steps=download,preprocess
    {{ .Command }} 'main.execute_steps=[segregate, random_forest]'
`),
	)
}

func Task(newInvoker InvokerFactory) func(context.Context, flarc.Commandline[Flags], []any) error {
	return func(ctx context.Context, cl flarc.Commandline[Flags], _ []any) error {
		logger := log.New(cl.Stderr(), "[mlpipeline] ", log.LstdFlags)
		flags := cl.Flags()

		mode, err := lineage.ParseMode(flags.Lineage)
		if err != nil {
			return errors.Wrap(err, "unable to parse --lineage")
		}

		cfg, err := config.Load(flags.ConfigDir, flags.ConfigName, cl.Args()[ARG_OVERRIDE]...)
		if err != nil {
			return err
		}

		root, err := filepath.Abs(flags.Root)
		if err != nil {
			return errors.Wrap(err, "unable to get stage root")
		}

		msr := measure.NewDefaultMeasure()
		hooks := []model.PipelineOption{measure.PipelineMeasure(msr)}

		if mode != lineage.ModeOff {
			hooks = append(hooks, lineage.New(mode, logger))
		}

		if flags.Draw != "" {
			dotOptions := []drawer.DOTOption{}
			if flags.RankDir != "" {
				dotOptions = append(dotOptions, drawer.GraphAttribute("rankdir", flags.RankDir))
			}

			hooks = append(hooks, drawer.PipelineDrawer(drawer.NewDOTDrawer(flags.Draw, dotOptions...), msr))
		}

		pipe, err := pipeline.New(
			cfg, newInvoker(flags, logger),
			pipeline.PipelineRootPath(root),
			pipeline.PipelineWorkDir(flags.WorkDir),
			pipeline.PipelineLogger(logger),
			pipeline.PipelineHooks(hooks...),
		)
		if err != nil {
			return errors.Wrap(err, "unable to create pipeline")
		}

		sel, err := pipe.Selection()
		if err != nil {
			return err
		}

		if unknown := sel.Unknown(pipeline.StageNames()...); len(unknown) > 0 {
			logger.Printf("ignoring unknown stages: %s", strings.Join(unknown, ", "))
		}

		err = pipe.Run(ctx)
		if err != nil {
			return err
		}

		if flags.Summary {
			return measure.Summary(cl.Stdout(), msr)
		}

		return nil
	}
}
