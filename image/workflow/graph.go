package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

type (
	// Graph is an engine workflow in API format, keyed by node id.
	Graph struct {
		Nodes map[string]*Node
	}

	Node struct {
		ClassType string         `json:"class_type"`
		Inputs    map[string]any `json:"inputs"`
		Meta      *Meta          `json:"_meta,omitempty"`
	}

	Meta struct {
		Title string `json:"title"`
	}

	// Ref points at output Slot of node Node. It travels as ["id", slot].
	Ref struct {
		Node string
		Slot int
	}

	// InputRef names one input of one node.
	InputRef struct {
		Node  string
		Input string
	}
)

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Node, r.Slot})
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	ref, ok := decodeRef(data)
	if !ok {
		return fmt.Errorf("not a node reference: %s", data)
	}
	*r = ref
	return nil
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Node, r.Slot)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ClassType string                     `json:"class_type"`
		Inputs    map[string]json.RawMessage `json:"inputs"`
		Meta      *Meta                      `json:"_meta"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.ClassType = raw.ClassType
	n.Meta = raw.Meta
	n.Inputs = make(map[string]any, len(raw.Inputs))
	for name, value := range raw.Inputs {
		decoded, err := decodeInput(value)
		if err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
		n.Inputs[name] = decoded
	}

	return nil
}

func decodeInput(raw json.RawMessage) (any, error) {
	if ref, ok := decodeRef(raw); ok {
		return ref, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func decodeRef(raw []byte) (Ref, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return Ref{}, false
	}

	var slot int
	if err := json.Unmarshal(pair[1], &slot); err != nil {
		return Ref{}, false
	}

	var id string
	if err := json.Unmarshal(pair[0], &id); err == nil {
		return Ref{Node: id, Slot: slot}, true
	}
	var numeric int64
	if err := json.Unmarshal(pair[0], &numeric); err == nil {
		return Ref{Node: strconv.FormatInt(numeric, 10), Slot: slot}, true
	}

	return Ref{}, false
}

// Parse decodes a node map. Every call yields an independent graph.
func Parse(data []byte) (*Graph, error) {
	nodes := map[string]*Node{}
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}
	for id, node := range nodes {
		if node == nil {
			return nil, fmt.Errorf("node %s is null", id)
		}
		if node.ClassType == "" {
			return nil, fmt.Errorf("node %s has no class_type", id)
		}
		if node.Inputs == nil {
			node.Inputs = map[string]any{}
		}
	}
	return &Graph{Nodes: nodes}, nil
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Nodes)
}

func (g *Graph) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}

func (g *Graph) Clone() *Graph {
	clone := &Graph{Nodes: make(map[string]*Node, len(g.Nodes))}
	for id, node := range g.Nodes {
		copied := &Node{
			ClassType: node.ClassType,
			Inputs:    make(map[string]any, len(node.Inputs)),
		}
		if node.Meta != nil {
			meta := *node.Meta
			copied.Meta = &meta
		}
		for name, value := range node.Inputs {
			copied.Inputs[name] = cloneValue(value)
		}
		clone.Nodes[id] = copied
	}
	return clone
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// IDs returns node ids in numeric-then-lexical order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

// NextID returns one past the highest numeric node id.
func (g *Graph) NextID() string {
	highest := 0
	for id := range g.Nodes {
		if n, err := strconv.Atoi(id); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// Add inserts a node under a fresh id and returns it.
func (g *Graph) Add(classType, title string, inputs map[string]any) string {
	id := g.NextID()
	node := &Node{ClassType: classType, Inputs: inputs}
	if node.Inputs == nil {
		node.Inputs = map[string]any{}
	}
	if title != "" {
		node.Meta = &Meta{Title: title}
	}
	g.Nodes[id] = node
	return id
}

// FindByClass returns the ids of nodes of any of the given classes, ordered by id.
func (g *Graph) FindByClass(classTypes ...string) []string {
	want := make(map[string]bool, len(classTypes))
	for _, c := range classTypes {
		want[c] = true
	}
	var found []string
	for _, id := range g.IDs() {
		if want[g.Nodes[id].ClassType] {
			found = append(found, id)
		}
	}
	return found
}

// InputRef returns the reference held by input name of node id, if any.
func (g *Graph) InputRef(id, name string) (Ref, bool) {
	node, ok := g.Nodes[id]
	if !ok {
		return Ref{}, false
	}
	ref, ok := node.Inputs[name].(Ref)
	return ref, ok
}

// Consumers lists every input that reads from ref, ordered by node id.
func (g *Graph) Consumers(ref Ref) []InputRef {
	var consumers []InputRef
	for _, id := range g.IDs() {
		node := g.Nodes[id]
		names := make([]string, 0, len(node.Inputs))
		for name := range node.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if r, ok := node.Inputs[name].(Ref); ok && r == ref {
				consumers = append(consumers, InputRef{Node: id, Input: name})
			}
		}
	}
	return consumers
}

// Rewire points every consumer of from at to, skipping nodes listed in except.
func (g *Graph) Rewire(from, to Ref, except ...string) {
	skip := make(map[string]bool, len(except))
	for _, id := range except {
		skip[id] = true
	}
	for _, consumer := range g.Consumers(from) {
		if skip[consumer.Node] {
			continue
		}
		g.Nodes[consumer.Node].Inputs[consumer.Input] = to
	}
}

// Upstream returns every node reachable by following references back from id, id included.
func (g *Graph) Upstream(id string) map[string]bool {
	seen := map[string]bool{}
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		node, ok := g.Nodes[current]
		if !ok {
			continue
		}
		seen[current] = true
		for _, value := range node.Inputs {
			if ref, ok := value.(Ref); ok {
				stack = append(stack, ref.Node)
			}
		}
	}
	return seen
}

// Set writes a literal input when the node exists. It reports whether it did.
func (g *Graph) Set(id, input string, value any) bool {
	node, ok := g.Nodes[id]
	if !ok {
		return false
	}
	node.Inputs[input] = value
	return true
}

// Number reads a numeric literal input.
func (g *Graph) Number(id, input string) (float64, bool) {
	node, ok := g.Nodes[id]
	if !ok {
		return 0, false
	}
	return toFloat(node.Inputs[input])
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
