// Package invoker starts pipeline stages as MLflow projects.
package invoker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

// DefaultExecutable is the MLflow command looked up in PATH.
const DefaultExecutable = "mlflow"

// DefaultWaitDelay is how long the output of a finished or killed stage is still read.
const DefaultWaitDelay = 5 * time.Second

// ExitError is returned when a stage process exits with a non-zero status.
type ExitError struct {
	Stage    string
	ExitCode int
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("stage %s exited with status %d", e.Stage, e.ExitCode)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// MLflow runs each stage with "mlflow run".
type MLflow struct {
	executable     string
	envManager     string
	experimentName string
	logger         *log.Logger
	waitDelay      time.Duration
	environ        func() []string
}

type Option func(m *MLflow)

func WithExecutable(executable string) Option {
	return func(m *MLflow) {
		m.executable = executable
	}
}

// WithEnvManager sets --env-manager (local, virtualenv or conda).
func WithEnvManager(envManager string) Option {
	return func(m *MLflow) {
		m.envManager = envManager
	}
}

func WithExperimentName(experimentName string) Option {
	return func(m *MLflow) {
		m.experimentName = experimentName
	}
}

// WithLogger sets the logger receiving the stage output, one line per entry.
func WithLogger(logger *log.Logger) Option {
	return func(m *MLflow) {
		m.logger = logger
	}
}

// WithWaitDelay bounds the wait for the stage output once the stage process is gone.
func WithWaitDelay(waitDelay time.Duration) Option {
	return func(m *MLflow) {
		m.waitDelay = waitDelay
	}
}

func NewMLflow(opts ...Option) *MLflow {
	mlf := &MLflow{
		executable: DefaultExecutable,
		logger:     log.New(io.Discard, "", log.LstdFlags),
		waitDelay:  DefaultWaitDelay,
		environ:    os.Environ,
	}

	for _, opt := range opts {
		opt(mlf)
	}

	return mlf
}

// Args returns the command line arguments for run, without the executable.
func (m *MLflow) Args(run *model.Run) []string {
	args := []string{"run", run.Dir, "--entry-point", run.EntryPoint}

	if m.envManager != "" {
		args = append(args, "--env-manager", m.envManager)
	}

	if m.experimentName != "" {
		args = append(args, "--experiment-name", m.experimentName)
	}

	for _, key := range run.Parameters.Keys() {
		args = append(args, "-P", key+"="+run.Parameters.Format(key))
	}

	return args
}

// Env returns the environment of the stage process: the current environment plus the run variables.
func (m *MLflow) Env(run *model.Run) []string {
	env := m.environ()

	keys := make([]string, 0, len(run.Env))
	for key := range run.Env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		env = append(env, key+"="+run.Env[key])
	}

	return env
}

// Invoke runs the stage and waits for it. The stage output is copied to the logger.
// When ctx is done, the stage process and the processes it started are killed.
func (m *MLflow) Invoke(ctx context.Context, run *model.Run) error {
	cmd := exec.CommandContext(ctx, m.executable, m.Args(run)...) //nolint:gosec // arguments come from the pipeline definition.
	cmd.Env = m.Env(run)
	cmd.WaitDelay = m.waitDelay
	killProcessGroup(cmd)

	// exec copies the output into these writers, so Wait stops waiting for it after WaitDelay
	// even when an orphaned process keeps the write end open.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err := cmd.Start()
	if err != nil {
		return errors.Wrapf(err, "unable to start %s", m.executable)
	}

	errGrp := errgroup.Group{}
	errGrp.Go(func() error {
		return m.copyLines(run.Stage, stdoutR)
	})
	errGrp.Go(func() error {
		return m.copyLines(run.Stage, stderrR)
	})

	waitErr := cmd.Wait()

	stdoutW.Close()
	stderrW.Close()

	copyErr := errGrp.Wait()

	if ctx.Err() != nil {
		return errors.Wrapf(ctx.Err(), "stage %s interrupted", run.Stage)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &ExitError{Stage: run.Stage, ExitCode: exitErr.ExitCode(), Err: waitErr}
		}

		return errors.Wrapf(waitErr, "unable to run %s", m.executable)
	}

	if copyErr != nil {
		return errors.Wrap(copyErr, "unable to read stage output")
	}

	return nil
}

func (m *MLflow) copyLines(stage string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1<<20)

	for scanner.Scan() {
		m.logger.Printf("[%s] %s", stage, scanner.Text())
	}

	err := scanner.Err()
	if err != nil {
		// keep draining so the process never blocks on a full pipe
		_, _ = io.Copy(io.Discard, r)

		return err
	}

	return nil
}

var _ model.Invoker = (*MLflow)(nil)
