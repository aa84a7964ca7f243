package system

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DependencyStatus represents the status of an external tool dependency
type DependencyStatus struct {
	Name        string    `json:"name"`
	Required    bool      `json:"required"`
	Available   bool      `json:"available"`
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	UsedBy      []string  `json:"used_by"`
	LastChecked time.Time `json:"last_checked"`
	Error       string    `json:"error,omitempty"`
}

// DependencyDefinition describes one tool the CLI may shell out to.
type DependencyDefinition struct {
	Name        string
	Required    bool
	UsedBy      []string
	Description string
	VersionArgs []string
}

// The only external tool fwcache shells out to. Fetching, hashing and
// ownership are all native.
var dependencies = map[string]DependencyDefinition{
	"systemctl": {
		Name:        "systemctl",
		Required:    false,
		UsedBy:      []string{"sync (service restart)"},
		Description: "systemd service manager - for restarting the controller after cache updates",
		VersionArgs: []string{"--version"},
	},
}

// CheckDependency checks the availability of one named tool.
func CheckDependency(name string) DependencyStatus {
	status := DependencyStatus{
		Name:        name,
		LastChecked: time.Now(),
	}

	def, ok := dependencies[name]
	if !ok {
		status.Error = "unknown dependency"
		return status
	}
	status.Required = def.Required
	status.UsedBy = def.UsedBy

	path, err := exec.LookPath(name)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.Available = true
	status.Path = path
	status.Version = probeVersion(path, def.VersionArgs)
	return status
}

// CheckAll checks every known dependency.
func CheckAll() map[string]DependencyStatus {
	out := make(map[string]DependencyStatus, len(dependencies))
	for name := range dependencies {
		out[name] = CheckDependency(name)
	}
	return out
}

func probeVersion(path string, args []string) string {
	if len(args) == 0 {
		return ""
	}
	out, err := exec.Command(path, args...).Output()
	if err != nil {
		return ""
	}
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	return strings.TrimSpace(line)
}

// CheckWritable reports whether the process can create files under dir.
func CheckWritable(dir string) error {
	probe := filepath.Join(dir, ".fwcache-writecheck")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
