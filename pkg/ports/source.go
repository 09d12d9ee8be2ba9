package ports

import (
	"context"

	"github.com/parleylabs/parley/pkg/graph"
)

// GraphSource loads a declarative graph Definition from some backing format
// (YAML config file, loam markdown directory, in-code DSL). The definition must
// still pass graph.Build before serving.
type GraphSource interface {
	Load(ctx context.Context) (graph.Definition, error)
}

// Watchable is implemented by sources that can notify about backend changes,
// typically for hot-reload in dev mode. The graph itself is immutable; a change
// notification means "rebuild and atomically swap the graph for new sessions".
type Watchable interface {
	// Watch returns a channel that receives the changed document/file ID whenever
	// the underlying definition changes.
	Watch(ctx context.Context) (<-chan string, error)
}
