package workflow

import (
	"errors"
	"fmt"
	"strings"
)

type controlNetUnitSpec struct {
	Model    string
	Image    string
	Strength float64
	Start    float64
	End      float64
}

type controlNetPass struct {
	enabled bool
	units   []controlNetUnitSpec
}

func newControlNetPass(settings *ControlNetSettings, enabled bool) *controlNetPass {
	p := &controlNetPass{enabled: enabled}
	for _, unit := range settings.ActiveUnits() {
		start := clampRange(unit.GuidanceStart.Float(0), 0, 1)
		end := clampRange(unit.GuidanceEnd.Float(1), 0, 1)
		if end < start {
			start, end = end, start
		}
		p.units = append(p.units, controlNetUnitSpec{
			Model:    strings.TrimSpace(unit.Model),
			Image:    strings.TrimSpace(unit.InputImage),
			Strength: clampRange(unit.Weight.Float(1.0), 0, 10),
			Start:    start,
			End:      end,
		})
	}
	return p
}

func (p *controlNetPass) Name() string  { return "controlnet" }
func (p *controlNetPass) Enabled() bool { return p.enabled }

func (p *controlNetPass) Apply(g *Graph) error {
	if len(p.units) == 0 {
		return errors.New("no active ControlNet units")
	}

	sampler, err := requireSampler(g)
	if err != nil {
		return err
	}

	remaining := p.units
	if existing := g.FindByClass("ControlNetApplyAdvanced"); len(existing) > 0 {
		if err := fillControlNet(g, existing[0], remaining[0]); err != nil {
			return err
		}
		remaining = remaining[1:]
	}

	for _, unit := range remaining {
		positive, err := requireRef(g, sampler, "positive")
		if err != nil {
			return err
		}
		negative, err := requireRef(g, sampler, "negative")
		if err != nil {
			return err
		}

		image := g.Add("LoadImage", "ControlNet Image", map[string]any{"image": unit.Image, "upload": "image"})
		loader := g.Add("ControlNetLoader", "Load ControlNet Model", map[string]any{"control_net_name": unit.Model})
		apply := g.Add("ControlNetApplyAdvanced", "Apply ControlNet", map[string]any{
			"positive":      positive,
			"negative":      negative,
			"control_net":   Ref{Node: loader, Slot: 0},
			"image":         Ref{Node: image, Slot: 0},
			"strength":      unit.Strength,
			"start_percent": unit.Start,
			"end_percent":   unit.End,
		})

		g.Nodes[sampler].Inputs["positive"] = Ref{Node: apply, Slot: 0}
		g.Nodes[sampler].Inputs["negative"] = Ref{Node: apply, Slot: 1}
	}

	return nil
}

// fillControlNet writes a unit into an apply node and the loader and image feeding it.
func fillControlNet(g *Graph, apply string, unit controlNetUnitSpec) error {
	loader, err := requireRef(g, apply, "control_net")
	if err != nil {
		return err
	}
	image, err := requireRef(g, apply, "image")
	if err != nil {
		return err
	}
	if g.Nodes[loader.Node].ClassType != "ControlNetLoader" {
		return fmt.Errorf("node %s is not a ControlNetLoader", loader.Node)
	}
	if g.Nodes[image.Node].ClassType != "LoadImage" {
		return fmt.Errorf("node %s is not a LoadImage", image.Node)
	}

	g.Nodes[loader.Node].Inputs["control_net_name"] = unit.Model
	g.Nodes[image.Node].Inputs["image"] = unit.Image
	node := g.Nodes[apply]
	node.Inputs["strength"] = unit.Strength
	node.Inputs["start_percent"] = unit.Start
	node.Inputs["end_percent"] = unit.End
	return nil
}
