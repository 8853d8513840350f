package workflow

import (
	"fmt"

	"dreamlayer/logger"
)

// Transformer turns a validated request into a submit-ready graph.
type Transformer struct {
	Normalizer  Normalizer
	Router      *Router
	Loader      *Loader
	Credentials Credentials
}

type Result struct {
	Graph    *Graph
	Core     CoreSettings
	Family   Family
	Template string
	Custom   bool
	// Passes lists the feature passes that changed the graph, in order.
	Passes []string
}

func (t *Transformer) Transform(req *GenerationRequest) (*Result, error) {
	core, err := t.Normalizer.Normalize(req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Normalized settings", "model", core.CkptName, "width", core.Width, "height", core.Height,
		"steps", core.Steps, "sampler", core.SamplerName, "seed", core.Seed)

	family := t.Router.Route(core.CkptName)
	toggles := req.Toggles()
	logger.Debug("Routed model", "model", core.CkptName, "family", family,
		"controlnet", toggles.UseControlNet, "lora", toggles.UseLora)

	tmpl, err := t.Loader.Load(family, toggles.UseControlNet, toggles.UseLora)
	if err != nil {
		return nil, err
	}

	if family != FamilyLocal {
		if err := InjectCredentials(tmpl.Graph, t.Credentials); err != nil {
			return nil, err
		}
	}

	g, custom, err := Override(tmpl, core, req.CustomWorkflow, t.Credentials)
	if err != nil {
		return nil, err
	}

	g, applied, err := RunPasses(g, BuildPasses(req, core))
	if err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("final graph: %w", err)
	}

	return &Result{
		Graph:    g,
		Core:     core,
		Family:   family,
		Template: tmpl.Name,
		Custom:   custom,
		Passes:   applied,
	}, nil
}

// RunPasses applies each enabled pass to a clone and keeps the clone only
// when the pass succeeds and the graph still validates.
func RunPasses(g *Graph, passes []Pass) (*Graph, []string, error) {
	var applied []string
	for _, pass := range passes {
		if !pass.Enabled() {
			continue
		}
		next := g.Clone()
		if err := pass.Apply(next); err != nil {
			return nil, nil, &FeatureInjectionError{Pass: pass.Name(), Err: err}
		}
		if err := next.Validate(); err != nil {
			return nil, nil, &FeatureInjectionError{Pass: pass.Name(), Err: err}
		}
		logger.Debug("Applied feature pass", "pass", pass.Name(), "nodes", len(next.Nodes))
		g = next
		applied = append(applied, pass.Name())
	}
	return g, applied, nil
}
