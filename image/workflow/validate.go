package workflow

import (
	"errors"
	"fmt"
)

var ErrInvalidGraph = errors.New("invalid workflow graph")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGraph, fmt.Sprintf(format, args...))
}

// Validate checks that every reference resolves, the graph is acyclic and
// exactly one SaveImage node is fed by a sampler or remote generator.
func (g *Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return invalid("graph has no nodes")
	}

	for _, id := range g.IDs() {
		node := g.Nodes[id]
		for name, value := range node.Inputs {
			ref, ok := value.(Ref)
			if !ok {
				continue
			}
			producer, ok := g.Nodes[ref.Node]
			if !ok {
				return invalid("node %s input %s references missing node %s", id, name, ref.Node)
			}
			if ref.Slot < 0 {
				return invalid("node %s input %s references negative slot %d", id, name, ref.Slot)
			}
			// Unknown custom classes only need a non-negative slot.
			if spec, known := Catalog[producer.ClassType]; known && ref.Slot >= len(spec.Outputs) {
				return invalid("node %s input %s references slot %d of %s which has %d outputs",
					id, name, ref.Slot, producer.ClassType, len(spec.Outputs))
			}
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return err
	}

	saves := g.FindByClass("SaveImage")
	if len(saves) != 1 {
		return invalid("expected exactly one SaveImage node, found %d", len(saves))
	}

	for upstream := range g.Upstream(saves[0]) {
		if isGenerator(g.Nodes[upstream].ClassType) {
			return nil
		}
	}
	return invalid("SaveImage node %s is not fed by a sampling node", saves[0])
}

func (g *Graph) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.Nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return invalid("cycle through node %s", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, value := range g.Nodes[id].Inputs {
			if ref, ok := value.(Ref); ok {
				if _, exists := g.Nodes[ref.Node]; !exists {
					continue
				}
				if err := visit(ref.Node); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for _, id := range g.IDs() {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
