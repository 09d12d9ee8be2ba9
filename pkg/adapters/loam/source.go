// Package loam loads the agent definition from a Loam markdown repository: one
// document per context (frontmatter for flags and steps, body for prompt
// sections) plus an agent.md manifest for entry point, voice bindings and
// internal fillers. The repository is watchable, so a running server can
// rebuild the graph when a file changes.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/graph"
)

// manifestID is the document holding agent-level configuration. Its body is the
// global base persona.
const manifestID = "agent"

// Source adapts a Loam repository to the ports.GraphSource interface.
type Source struct {
	repo *loam.TypedRepository[ContextMetadata]
}

// New creates a Source over an existing typed repository.
func New(repo *loam.TypedRepository[ContextMetadata]) *Source {
	return &Source{repo: repo}
}

// Open initializes a read-only Loam repository at path and wraps it in a Source.
// Strict mode makes frontmatter typos fail loudly instead of silently dropping
// configuration.
func Open(path string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent directory: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[ContextMetadata](repo)), nil
}

// Load reads every document and assembles the graph definition. Structural
// validation is graph.Build's job; Load only reports repository-level problems
// (unreadable documents, duplicate context names).
func (s *Source) Load(ctx context.Context) (graph.Definition, error) {
	var def graph.Definition

	docs, err := s.repo.List(ctx)
	if err != nil {
		return def, fmt.Errorf("loam list failed: %w", err)
	}

	type entry struct {
		name string
		ctx  domain.Context
	}
	var entries []entry
	seen := make(map[string]string)

	for _, doc := range docs {
		id := trimExtension(doc.ID)

		if id == manifestID {
			def.Entry = doc.Data.Entry
			def.SummaryPrompt = doc.Data.SummaryPrompt
			def.InternalFillers = doc.Data.InternalFillers
			def.Base = parseSections(doc.Content)
			for _, l := range doc.Data.Languages {
				def.Languages = append(def.Languages, domain.Language{
					Name:  l.Name,
					Code:  l.Code,
					Voice: l.Voice,
				})
			}
			continue
		}

		name := doc.Data.ID
		if name == "" {
			name = filepath.Base(id)
		}
		if existing, dup := seen[name]; dup {
			return def, fmt.Errorf("context %q is defined in both %q and %q", name, existing, doc.ID)
		}
		seen[name] = doc.ID

		entries = append(entries, entry{
			name: name,
			ctx: domain.Context{
				Name:         name,
				Isolated:     doc.Data.Isolated,
				FullReset:    doc.Data.FullReset,
				Language:     doc.Data.Language,
				EnterFillers: doc.Data.EnterFillers,
				Sections:     parseSections(doc.Content),
				Steps:        convertSteps(doc.Data.Steps),
			},
		})
	}

	// Filesystem listing order is not contractual; sort for a stable definition.
	// The entry context comes from the manifest, not from position.
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	for _, e := range entries {
		def.Contexts = append(def.Contexts, e.ctx)
	}

	return def, nil
}

// Watch implements ports.Watchable: it emits the ID of every changed document.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.repo.Watch(ctx, "**/*.{md,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
