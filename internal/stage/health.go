package stage

import (
	"context"
	"strings"
)

// Health summarizes the readiness of a pipeline phase.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// Checker is implemented by each phase adapter that wraps an external tool.
type Checker interface {
	HealthCheck(context.Context) Health
}

// Collect runs every checker in order. Nil checkers are skipped.
func Collect(ctx context.Context, checkers ...Checker) []Health {
	results := make([]Health, 0, len(checkers))
	for _, checker := range checkers {
		if checker == nil {
			continue
		}
		results = append(results, checker.HealthCheck(ctx))
	}
	return results
}

// Unready returns the names of phases that reported not ready.
func Unready(results []Health) []string {
	var names []string
	for _, h := range results {
		if !h.Ready {
			names = append(names, h.Name)
		}
	}
	return names
}

// Summary renders a one-line readiness summary.
func Summary(results []Health) string {
	unready := Unready(results)
	if len(unready) == 0 {
		return "all phases ready"
	}
	return "not ready: " + strings.Join(unready, ", ")
}
