// Package deps verifies the external binaries favsync shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"favsync/internal/config"
	"favsync/internal/services"
)

// Requirement defines an external dependency favsync relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries a sync run needs for the given config.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Transcodes source audio into the target codec",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Verify checks every required binary and returns a configuration error
// naming the first missing one. It is run before any filesystem mutation.
func Verify(cfg *config.Config) error {
	for _, status := range CheckBinaries(Requirements(cfg)) {
		if status.Available || status.Optional {
			continue
		}
		return services.Wrap(
			services.ErrConfiguration,
			"deps",
			"verify",
			fmt.Sprintf("%s unavailable: %s", status.Name, status.Detail),
			nil,
		)
	}
	return nil
}
