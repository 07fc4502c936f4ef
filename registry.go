package chatkit

import (
	"fmt"
	"slices"
)

// Toolbox is the union of the two ways callers declare tools: an ordered
// list or a name-keyed map. Both resolve to the same normalized registry
// before a conversation loop starts.
//
// Duplicate-name policy: in a ToolList the last entry with a given name
// wins; in a ToolSet the map key is authoritative for lookup even when it
// disagrees with the tool's own Name (the embedded name is still what gets
// advertised to the model). Neither case is an error.
type Toolbox struct {
	list []Tool
	set  map[string]Tool
}

// ToolList declares tools as an ordered sequence keyed by each tool's Name.
func ToolList(tools ...Tool) Toolbox {
	return Toolbox{list: tools}
}

// ToolSet declares tools as a name-keyed map. Keys win over embedded names.
func ToolSet(tools map[string]Tool) Toolbox {
	return Toolbox{set: tools}
}

// registry is the normalized lookup table used by the conversation loop.
type registry struct {
	byName map[string]Tool
}

// normalize flattens a Toolbox into a lookup table. A ToolList entry that
// is nil or has an empty name is an InvalidToolError.
func (tb Toolbox) normalize() (*registry, error) {
	byName := make(map[string]Tool, len(tb.list)+len(tb.set))
	for i, t := range tb.list {
		if t == nil {
			return nil, &InvalidToolError{Reason: fmt.Sprintf("tool at index %d is nil", i)}
		}
		name := t.Name()
		if name == "" {
			return nil, &InvalidToolError{Reason: fmt.Sprintf("tool at index %d has no name", i)}
		}
		byName[name] = t
	}
	for key, t := range tb.set {
		if t == nil {
			return nil, &InvalidToolError{Reason: fmt.Sprintf("tool %q is nil", key)}
		}
		byName[key] = t
	}
	return &registry{byName: byName}, nil
}

// lookup resolves a tool by the name the model requested.
func (r *registry) lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// descriptors returns the wire-shape tool advertisements, sorted by name for
// deterministic request bodies. An empty registry returns nil so the tools
// field is omitted entirely; some providers reject an empty tools array.
func (r *registry) descriptors() []ToolDescriptor {
	if len(r.byName) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]ToolDescriptor, 0, len(names))
	for _, name := range names {
		t := r.byName[name]
		out = append(out, ToolDescriptor{
			Type: "function",
			Function: FunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}
