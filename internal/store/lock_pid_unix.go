//go:build !windows

package store

import "syscall"

// processAlive reports whether pid refers to a live process by sending it
// signal 0, which performs permission/existence checks without delivering
// anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
