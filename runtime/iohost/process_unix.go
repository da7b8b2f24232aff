//go:build !windows

package iohost

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so a
// kill-on-shutdown (or explicit "kill process") can take down any
// grandchildren a shell spawned too.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup sends SIGKILL to the whole process group headed by pid.
func killGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}
