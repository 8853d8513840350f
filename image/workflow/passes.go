package workflow

import (
	"errors"
	"fmt"
	"math"
)

// Pass is one optional feature layered onto the graph. Apply mutates g in place;
// the pipeline hands it a clone so a failed pass leaves nothing behind.
type Pass interface {
	Name() string
	Enabled() bool
	Apply(g *Graph) error
}

// BuildPasses returns the feature passes in the order they must run.
func BuildPasses(req *GenerationRequest, core CoreSettings) []Pass {
	toggles := req.Toggles()
	return []Pass{
		newLoraPass(req.Lora, toggles.UseLora),
		newControlNetPass(req.ControlNet, toggles.UseControlNet),
		newFaceRestorePass(req, toggles.UseFaceRestoration),
		newTilingPass(req, toggles.UseTiling),
		newHiresFixPass(req, core, toggles.HiresFix),
		newRefinerPass(req, core, toggles.RefinerEnabled),
	}
}

var errNoSampler = errors.New("graph has no sampler")

func requireSampler(g *Graph) (string, error) {
	sampler, ok := baseSampler(g)
	if !ok {
		return "", errNoSampler
	}
	return sampler, nil
}

func requireSave(g *Graph) (string, *Node, error) {
	saves := g.FindByClass("SaveImage")
	if len(saves) != 1 {
		return "", nil, fmt.Errorf("expected one SaveImage node, found %d", len(saves))
	}
	return saves[0], g.Nodes[saves[0]], nil
}

// baseDecodes returns decode nodes reading the output of sampler.
func baseDecodes(g *Graph, sampler string) []string {
	var decodes []string
	for _, consumer := range g.Consumers(Ref{Node: sampler, Slot: 0}) {
		if consumer.Input == "samples" && roleOf(g.Nodes[consumer.Node].ClassType) == RoleDecode {
			decodes = append(decodes, consumer.Node)
		}
	}
	return decodes
}

func requireRef(g *Graph, id, input string) (Ref, error) {
	ref, ok := g.InputRef(id, input)
	if !ok {
		return Ref{}, fmt.Errorf("node %s input %s is not connected", id, input)
	}
	return ref, nil
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, multiple int) int {
	m := float64(multiple)
	return int(math.Round(v/m) * m)
}
