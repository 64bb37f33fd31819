package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency vidcap relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Remedy      string
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

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := newStatus(req, cmd)
		if cmd == "" {
			status.Detail = withRemedy("command not configured", req.Remedy)
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = withRemedy(fmt.Sprintf("binary %q not found", cmd), req.Remedy)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckFile reports whether req.Command names an existing regular file.
func CheckFile(req Requirement) Status {
	path := strings.TrimSpace(req.Command)
	status := newStatus(req, path)
	info, err := os.Stat(path)
	switch {
	case path == "":
		status.Detail = withRemedy("path not configured", req.Remedy)
	case err != nil:
		status.Detail = withRemedy(fmt.Sprintf("%s not found", path), req.Remedy)
	case info.IsDir():
		status.Detail = fmt.Sprintf("%s is a directory", path)
	default:
		status.Available = true
	}
	return status
}

// CheckService runs probe and reports its failure as the status detail.
func CheckService(ctx context.Context, req Requirement, probe func(context.Context) error) Status {
	status := newStatus(req, strings.TrimSpace(req.Command))
	if probe == nil {
		status.Detail = withRemedy("no probe configured", req.Remedy)
		return status
	}
	if err := probe(ctx); err != nil {
		status.Detail = withRemedy(err.Error(), req.Remedy)
		return status
	}
	status.Available = true
	return status
}

// MissingRequired returns the unavailable statuses that are not optional.
func MissingRequired(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

func newStatus(req Requirement, cmd string) Status {
	return Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
}

func withRemedy(detail, remedy string) string {
	remedy = strings.TrimSpace(remedy)
	if remedy == "" {
		return detail
	}
	return detail + " (" + remedy + ")"
}
