//go:build unix

package invoker

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts the stage in its own process group and kills the whole group on cancel,
// so the python process started by mlflow does not outlive the run.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
