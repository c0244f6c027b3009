package export

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/wsmetrics/internal/metrics"
)

// Reporter forwards a snapshot to an external system.
type Reporter interface {
	Report(ctx context.Context, snap metrics.Snapshot) error
}

// ReporterFunc is a function adapter for Reporter.
type ReporterFunc func(context.Context, metrics.Snapshot) error

func (f ReporterFunc) Report(ctx context.Context, snap metrics.Snapshot) error {
	return f(ctx, snap)
}

// Environment selects whether snapshots leave the process.
type Environment int

const (
	Development Environment = iota
	Production
)

func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	default:
		return "development"
	}
}

// ParseEnvironment parses "production"/"prod" or "development"/"dev".
// Matching is case-insensitive; the empty string is development.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production, nil
	case "", "development", "dev":
		return Development, nil
	default:
		return Development, fmt.Errorf("unknown environment %q", s)
	}
}

// Multi reports to every reporter concurrently. All reporters run even if
// some fail; the first error is returned.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, snap metrics.Snapshot) error {
	var g errgroup.Group
	for _, r := range m {
		if r == nil {
			continue
		}
		g.Go(func() error {
			return r.Report(ctx, snap)
		})
	}
	return g.Wait()
}
