package system

import (
	"fmt"
	"os/exec"
	"strings"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
)

// RestartService restarts a system service via systemctl. Failures are
// best-effort: callers log the returned error and carry on.
func RestartService(name string) error {
	if name == "" {
		return nil
	}

	path, err := exec.LookPath("systemctl")
	if err != nil {
		return fwerrors.Wrap(err, fwerrors.KindBestEffort, fwerrors.CodeRestartFailed,
			"systemctl not available").WithContext("service", name)
	}

	out, err := exec.Command(path, "restart", name).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fwerrors.Wrap(err, fwerrors.KindBestEffort, fwerrors.CodeRestartFailed,
			fmt.Sprintf("failed to restart service: %s", msg)).
			WithContext("service", name)
	}

	return nil
}
