package workflow

import (
	"fmt"
	"math"
	"strings"
)

type refinerPass struct {
	enabled  bool
	model    string
	switchAt float64
	prompt   string
	negative string
	steps    int
}

func newRefinerPass(req *GenerationRequest, core CoreSettings, enabled bool) *refinerPass {
	return &refinerPass{
		enabled:  enabled,
		model:    strings.TrimSpace(req.RefinerModel),
		switchAt: clampRange(req.RefinerSwitchAt.Float(0.8), 0, 1),
		prompt:   core.Prompt,
		negative: core.NegativePrompt,
		steps:    core.Steps,
	}
}

func (p *refinerPass) Name() string  { return "refiner" }
func (p *refinerPass) Enabled() bool { return p.enabled }

// switchStep is the step at which the refiner takes over, kept within [1, steps].
func (p *refinerPass) switchStep(steps int) int {
	return clampInt(int(math.Round(float64(steps)*p.switchAt)), 1, max(steps, 1))
}

func (p *refinerPass) Apply(g *Graph) error {
	if p.model == "" || strings.EqualFold(p.model, "none") {
		return fmt.Errorf("no refiner model selected")
	}

	sampler, err := requireSampler(g)
	if err != nil {
		return err
	}
	base := g.Nodes[sampler]

	steps := p.steps
	if v, ok := g.Number(sampler, "steps"); ok {
		steps = int(v)
	}
	switchAt := p.switchStep(steps)

	seed, ok := base.Inputs["noise_seed"]
	if !ok {
		seed = base.Inputs["seed"]
	}

	if base.ClassType == "KSampler" {
		base.ClassType = "KSamplerAdvanced"
		delete(base.Inputs, "seed")
		delete(base.Inputs, "denoise")
		base.Inputs["noise_seed"] = seed
		base.Inputs["add_noise"] = "enable"
		base.Inputs["start_at_step"] = 0
	}
	base.Inputs["end_at_step"] = switchAt
	base.Inputs["return_with_leftover_noise"] = "enable"

	checkpoint := g.Add("CheckpointLoaderSimple", "Refiner Checkpoint", map[string]any{"ckpt_name": p.model})
	positive := g.Add("CLIPTextEncode", "Refiner Positive Prompt", map[string]any{
		"text": p.prompt,
		"clip": Ref{Node: checkpoint, Slot: 1},
	})
	negative := g.Add("CLIPTextEncode", "Refiner Negative Prompt", map[string]any{
		"text": p.negative,
		"clip": Ref{Node: checkpoint, Slot: 1},
	})
	refiner := g.Add("KSamplerAdvanced", "Refiner Sampler", map[string]any{
		"model":                      Ref{Node: checkpoint, Slot: 0},
		"positive":                   Ref{Node: positive, Slot: 0},
		"negative":                   Ref{Node: negative, Slot: 0},
		"latent_image":               Ref{Node: sampler, Slot: 0},
		"add_noise":                  "disable",
		"noise_seed":                 seed,
		"steps":                      steps,
		"cfg":                        base.Inputs["cfg"],
		"sampler_name":               base.Inputs["sampler_name"],
		"scheduler":                  base.Inputs["scheduler"],
		"start_at_step":              switchAt,
		"end_at_step":                10000,
		"return_with_leftover_noise": "disable",
	})

	g.Rewire(Ref{Node: sampler, Slot: 0}, Ref{Node: refiner, Slot: 0}, refiner)
	return nil
}
