package workflow

import (
	"errors"
	"strings"
)

type loraSpec struct {
	Name          string
	StrengthModel float64
	StrengthClip  float64
}

type loraPass struct {
	enabled bool
	loras   []loraSpec
}

func newLoraPass(settings *LoraSettings, enabled bool) *loraPass {
	p := &loraPass{enabled: enabled}
	if settings == nil {
		return p
	}
	if name := strings.TrimSpace(settings.LoraName); name != "" {
		p.loras = append(p.loras, loraSpec{
			Name:          name,
			StrengthModel: settings.StrengthModel.Float(settings.Strength.Float(1.0)),
			StrengthClip:  settings.StrengthClip.Float(settings.Strength.Float(1.0)),
		})
	}
	for _, entry := range settings.Loras {
		p.loras = append(p.loras, loraSpec{
			Name:          strings.TrimSpace(entry.Name),
			StrengthModel: entry.StrengthModel.Float(entry.Strength.Float(1.0)),
			StrengthClip:  entry.StrengthClip.Float(entry.Strength.Float(1.0)),
		})
	}
	return p
}

func (p *loraPass) Name() string  { return "lora" }
func (p *loraPass) Enabled() bool { return p.enabled }

func (p *loraPass) Apply(g *Graph) error {
	if len(p.loras) == 0 {
		return errors.New("no LoRA selected")
	}

	sampler, err := requireSampler(g)
	if err != nil {
		return err
	}

	remaining := p.loras
	var last string
	if existing := g.FindByClass("LoraLoader"); len(existing) > 0 {
		last = existing[len(existing)-1]
		fillLora(g.Nodes[existing[0]], remaining[0])
		remaining = remaining[1:]
		// Further template loaders keep their own values; new ones chain after the last.
	} else {
		checkpoint, ok := traceInput(g, sampler, "model", RoleCheckpoint)
		if !ok {
			return errors.New("no checkpoint loader feeds the sampler")
		}
		last = checkpoint
	}

	for _, spec := range remaining {
		id := g.Add("LoraLoader", "Load LoRA "+spec.Name, map[string]any{
			"model": Ref{Node: last, Slot: 0},
			"clip":  Ref{Node: last, Slot: 1},
		})
		fillLora(g.Nodes[id], spec)
		g.Rewire(Ref{Node: last, Slot: 0}, Ref{Node: id, Slot: 0}, id)
		g.Rewire(Ref{Node: last, Slot: 1}, Ref{Node: id, Slot: 1}, id)
		last = id
	}

	return nil
}

func fillLora(node *Node, spec loraSpec) {
	node.Inputs["lora_name"] = spec.Name
	node.Inputs["strength_model"] = spec.StrengthModel
	node.Inputs["strength_clip"] = spec.StrengthClip
}
