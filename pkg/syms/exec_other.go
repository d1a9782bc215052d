//go:build !unix

package syms

import "os/exec"

func setPgroup(cmd *exec.Cmd) {}

func killPgroup(cmd *exec.Cmd) {}
