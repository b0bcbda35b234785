package invoker

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mlpipeline/pkg/pipeline/model"
)

func testRun() *model.Run {
	return &model.Run{
		Stage:      "segregate",
		Dir:        "/project/segregate",
		EntryPoint: model.EntryPoint,
		Parameters: model.Parameters{
			"test_size":      0.3,
			"input_artifact": "preprocessed_data.csv:latest",
			"stratify":       nil,
		},
		Env: map[string]string{
			"WANDB_RUN_GROUP": "dev",
			"WANDB_PROJECT":   "exercise_14",
		},
	}
}

func TestArgs(t *testing.T) {
	t.Parallel()

	mlf := NewMLflow()
	assert.Equal(t, []string{
		"run", "/project/segregate", "--entry-point", "main",
		"-P", "input_artifact=preprocessed_data.csv:latest",
		"-P", "stratify=None",
		"-P", "test_size=0.3",
	}, mlf.Args(testRun()))
}

func TestArgsWithOptions(t *testing.T) {
	t.Parallel()

	mlf := NewMLflow(WithEnvManager("conda"), WithExperimentName("genres"))
	run := &model.Run{Dir: "download", EntryPoint: model.EntryPoint}
	assert.Equal(t, []string{
		"run", "download", "--entry-point", "main",
		"--env-manager", "conda",
		"--experiment-name", "genres",
	}, mlf.Args(run))
}

func TestEnv(t *testing.T) {
	t.Parallel()

	mlf := NewMLflow()
	mlf.environ = func() []string { return []string{"PATH=/bin"} }

	assert.Equal(t, []string{
		"PATH=/bin",
		"WANDB_PROJECT=exercise_14",
		"WANDB_RUN_GROUP=dev",
	}, mlf.Env(testRun()))
}

const fakeMLflow = `#!/bin/sh
echo "args: $*"
echo "project: $WANDB_PROJECT"
echo "warning from stage" >&2
exit ${FAKE_EXIT:-0}
`

// The stage process started by mlflow keeps the output open after mlflow itself is killed.
const hangingMLflow = `#!/bin/sh
echo "starting stage"
sleep 30 &
sleep 60
`

func writeFakeMLflow(t *testing.T) string {
	t.Helper()

	return writeScript(t, fakeMLflow)
}

func writeScript(t *testing.T, content string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script executable")
	}

	path := filepath.Join(t.TempDir(), "mlflow")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o700)) //nolint:gosec

	return path
}

func TestInvoke(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	mlf := NewMLflow(WithExecutable(writeFakeMLflow(t)), WithLogger(log.New(buf, "", 0)))

	err := mlf.Invoke(context.Background(), testRun())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[segregate] args: run /project/segregate --entry-point main -P input_artifact=preprocessed_data.csv:latest")
	assert.Contains(t, out, "[segregate] project: exercise_14\n")
	assert.Contains(t, out, "[segregate] warning from stage\n")
}

func TestInvokeExitError(t *testing.T) {
	t.Parallel()

	mlf := NewMLflow(WithExecutable(writeFakeMLflow(t)))
	run := testRun()
	run.Env["FAKE_EXIT"] = "3"

	err := mlf.Invoke(context.Background(), run)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "segregate", exitErr.Stage)
	assert.Equal(t, 3, exitErr.ExitCode)
}

func TestInvokeMissingExecutable(t *testing.T) {
	t.Parallel()

	mlf := NewMLflow(WithExecutable(filepath.Join(t.TempDir(), "missing")))

	err := mlf.Invoke(context.Background(), testRun())
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestInvokeCancelledWithChildProcess(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	mlf := NewMLflow(WithExecutable(writeScript(t, hangingMLflow)), WithLogger(log.New(buf, "", 0)))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := mlf.Invoke(ctx, testRun())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "stage segregate interrupted")
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Contains(t, buf.String(), "[segregate] starting stage\n")
}

func TestInvokeWaitDelayBoundsOrphanedOutput(t *testing.T) {
	t.Parallel()

	// mlflow exits at once while its background process holds the output open.
	script := writeScript(t, "#!/bin/sh\nsleep 5 &\nexit 0\n")
	mlf := NewMLflow(WithExecutable(script), WithWaitDelay(100*time.Millisecond))

	start := time.Now()
	err := mlf.Invoke(context.Background(), testRun())

	require.ErrorIs(t, err, exec.ErrWaitDelay)
	assert.Less(t, time.Since(start), 3*time.Second)
}
