//go:build !unix

package process

import (
	"os/exec"
)

// configureProcessGroup keeps the default cancellation, which kills only the
// direct child. Use the docker backend where whole-tree cleanup matters.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}
