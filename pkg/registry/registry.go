package registry

import (
	"context"
	"fmt"

	"github.com/harunnryd/strum/pkg/llm"
	"github.com/harunnryd/strum/pkg/toolchan"
)

type ExecutionKind string

const (
	// KindRemote tools execute on the tool provider via the channel.
	KindRemote ExecutionKind = "remote"
	// KindClientRendered tools are never executed server-side; their
	// invocation is forwarded to the caller as a rendering instruction.
	KindClientRendered ExecutionKind = "client-rendered"
)

// Descriptor classifies one invocable tool.
type Descriptor struct {
	Name        string
	Description string
	Schema      map[string]any
	Kind        ExecutionKind
}

// Registry is the per-conversation tool set: the dynamic remote set merged
// with fixed local declarations. It classifies and routes; it never executes.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// Build discovers the remote tool set once at session start and merges the
// local declarations over it. Local tools win name collisions: they are
// authoritative for UI-affecting behavior.
func Build(ctx context.Context, ch toolchan.Channel, local []Descriptor) (*Registry, error) {
	remote, err := ch.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover remote tools: %w", err)
	}
	r := &Registry{byName: make(map[string]Descriptor)}
	for _, t := range remote {
		r.add(Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.InputSchema,
			Kind:        KindRemote,
		})
	}
	for _, d := range local {
		d.Kind = KindClientRendered
		r.add(d)
	}
	return r, nil
}

// NewStatic builds a registry from explicit descriptors, bypassing discovery.
// Later entries override earlier ones with the same name.
func NewStatic(descriptors ...Descriptor) *Registry {
	r := &Registry{byName: make(map[string]Descriptor)}
	for _, d := range descriptors {
		r.add(d)
	}
	return r
}

func (r *Registry) add(d Descriptor) {
	if _, exists := r.byName[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.byName[d.Name] = d
}

// Resolve looks a tool up by name.
func (r *Registry) Resolve(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// ModelTools converts the registry into the provider-facing tool list.
func (r *Registry) ModelTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.order))
	for _, d := range r.List() {
		out = append(out, llm.Tool{
			Name:        d.Name,
			Description: d.Description,
			Schema:      d.Schema,
		})
	}
	return out
}
