package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/runloop-dev/runloop/llm"
)

// RunFunc is the function signature for tool execution. Arguments have
// already been validated against the tool's schema.
type RunFunc func(ctx context.Context, args map[string]any) (string, error)

// Schema is the minimal JSON-Schema subset used for tool parameters:
// an object with typed properties and a required list.
type Schema struct {
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

var schemaTypes = map[string]bool{
	"string": true, "number": true, "integer": true,
	"boolean": true, "object": true, "array": true, "null": true,
}

// Parameters renders the schema as the JSON-Schema object sent to
// providers.
func (s Schema) Parameters() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[name] = prop
	}
	params := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		params["required"] = s.Required
	}
	return params
}

// validate checks the schema shape itself. Runs at registration time so
// a bad schema never reaches a live run.
func (s Schema) validate() error {
	for name, p := range s.Properties {
		if !schemaTypes[p.Type] {
			return fmt.Errorf("property %q has unsupported type %q", name, p.Type)
		}
	}
	for _, req := range s.Required {
		if _, ok := s.Properties[req]; !ok {
			return fmt.Errorf("required field %q is not declared in properties", req)
		}
	}
	return nil
}

// ValidateArgs checks a parsed argument map against the schema:
// required fields must be present and declared fields must match their
// type. Undeclared fields pass through untouched.
func (s Schema) ValidateArgs(args map[string]any) error {
	for _, field := range s.Required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	for key, value := range args {
		prop, ok := s.Properties[key]
		if !ok {
			continue
		}
		if err := validateType(value, prop.Type); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func validateType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	case "null":
		if value == nil {
			return nil
		}
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

// ToolSpec pairs a tool's serializable description with its executable
// capability. FatalOnError converts any execution failure into run
// termination instead of a recoverable in-conversation error.
type ToolSpec struct {
	Name         string
	Description  string
	Schema       Schema
	Run          RunFunc
	FatalOnError bool
}

// Definition renders the spec as the wire-level tool description.
func (t ToolSpec) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Schema.Parameters(),
	}
}

// Registry manages tool registration and lookup. Registration under an
// existing name replaces it. The registry itself is mutable; in-flight
// runs work against a Snapshot taken at run start, so concurrent
// registration never perturbs a running loop.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolSpec
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolSpec)}
}

// Register adds or replaces a tool. The spec is validated here, not at
// call time: a tool that registers successfully can always be
// dispatched.
func (r *Registry) Register(spec ToolSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if spec.Run == nil {
		return fmt.Errorf("tool %s has no run function", spec.Name)
	}
	if err := spec.Schema.validate(); err != nil {
		return fmt.Errorf("tool %s: %w", spec.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[spec.Name] = spec
	return nil
}

// MustRegister registers a tool and panics on a bad spec. Intended for
// static tool sets wired at startup.
func (r *Registry) MustRegister(spec ToolSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a registered tool and whether it exists.
func (r *Registry) Get(name string) (ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.tools[name]
	return spec, ok
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Snapshot returns a frozen copy of the registry. A run holds its
// snapshot for its whole duration; later mutation of the live registry
// does not affect it. Names are sorted so provider requests list tools
// in a stable order.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make(map[string]ToolSpec, len(r.tools))
	names := make([]string, 0, len(r.tools))
	for name, spec := range r.tools {
		tools[name] = spec
		names = append(names, name)
	}
	sort.Strings(names)
	return &Snapshot{tools: tools, names: names}
}

// Snapshot is an immutable set of tools frozen at run start.
type Snapshot struct {
	tools map[string]ToolSpec
	names []string
}

// Get returns a tool from the snapshot and whether it exists.
func (s *Snapshot) Get(name string) (ToolSpec, bool) {
	spec, ok := s.tools[name]
	return spec, ok
}

// Len returns the number of tools in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.tools)
}

// Definitions returns the wire-level descriptions of every tool in the
// snapshot, for inclusion in provider requests.
func (s *Snapshot) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(s.tools))
	for _, name := range s.names {
		defs = append(defs, s.tools[name].Definition())
	}
	return defs
}
