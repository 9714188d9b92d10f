package utils

import "os/exec"

// CommandExists verifies that a binary is reachable through PATH.
func CommandExists(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
