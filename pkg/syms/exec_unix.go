//go:build unix

package syms

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setPgroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killPgroup kills the tool together with anything it forked.
func killPgroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}
