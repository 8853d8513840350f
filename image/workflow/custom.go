package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MergeCustom decodes a caller supplied graph and writes the core settings
// into it by following the wiring from the sampler. Any failure is a
// *CustomWorkflowError.
func MergeCustom(raw json.RawMessage, core CoreSettings, creds Credentials) (*Graph, error) {
	g, err := decodeCustom(raw)
	if err != nil {
		return nil, &CustomWorkflowError{Err: err}
	}
	if err := g.Validate(); err != nil {
		return nil, &CustomWorkflowError{Err: err}
	}
	if err := mergeCore(g, core); err != nil {
		return nil, &CustomWorkflowError{Err: err}
	}
	if err := InjectCredentials(g, creds); err != nil {
		return nil, &CustomWorkflowError{Err: err}
	}
	return g, nil
}

// decodeCustom accepts a bare node map or one wrapped as {"prompt": {...}}.
func decodeCustom(raw json.RawMessage) (*Graph, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("custom workflow is not an object: %w", err)
	}
	if inner, ok := top["prompt"]; ok {
		var node struct {
			ClassType string `json:"class_type"`
		}
		if err := json.Unmarshal(inner, &node); err == nil && node.ClassType == "" {
			raw = inner
		}
	}
	return Parse(raw)
}

func mergeCore(g *Graph, core CoreSettings) error {
	sampler, hasSampler := baseSampler(g)
	remotes := g.FindByClass(classesWithRole(RoleRemote)...)
	if !hasSampler && len(remotes) == 0 {
		return errors.New("custom workflow has no sampling node")
	}

	for _, id := range remotes {
		node := g.Nodes[id]
		setIfPresent(node, "prompt", core.Prompt)
		setIfPresent(node, "negative_prompt", core.NegativePrompt)
		setIfPresent(node, "seed", core.Seed)
		setIfPresent(node, "width", core.Width)
		setIfPresent(node, "height", core.Height)
	}

	if !hasSampler {
		return nil
	}

	node := g.Nodes[sampler]
	if node.ClassType == "KSamplerAdvanced" {
		node.Inputs["noise_seed"] = core.Seed
	} else {
		node.Inputs["seed"] = core.Seed
		node.Inputs["denoise"] = core.Denoise
	}
	node.Inputs["steps"] = core.Steps
	node.Inputs["cfg"] = core.CfgScale
	node.Inputs["sampler_name"] = core.SamplerName
	node.Inputs["scheduler"] = core.Scheduler

	checkpoint, ok := traceInput(g, sampler, "model", RoleCheckpoint)
	if !ok {
		return fmt.Errorf("no checkpoint loader feeds sampler %s", sampler)
	}
	g.Nodes[checkpoint].Inputs["ckpt_name"] = core.CkptName

	positive, ok := traceInput(g, sampler, "positive", RoleEncoder)
	if !ok {
		return fmt.Errorf("no text encoder feeds the positive input of sampler %s", sampler)
	}
	negative, ok := traceInput(g, sampler, "negative", RoleEncoder)
	if !ok {
		return fmt.Errorf("no text encoder feeds the negative input of sampler %s", sampler)
	}
	if positive == negative {
		return fmt.Errorf("sampler %s uses encoder %s for both prompts", sampler, positive)
	}
	g.Nodes[positive].Inputs["text"] = core.Prompt
	g.Nodes[negative].Inputs["text"] = core.NegativePrompt

	latent, ok := traceInput(g, sampler, "latent_image", RoleLatent)
	if !ok {
		return fmt.Errorf("no empty latent feeds sampler %s", sampler)
	}
	latentNode := g.Nodes[latent]
	latentNode.Inputs["width"] = core.Width
	latentNode.Inputs["height"] = core.Height
	latentNode.Inputs["batch_size"] = core.BatchSize

	return nil
}

// baseSampler picks the sampler that starts from an empty latent and feeds the save node.
func baseSampler(g *Graph) (string, bool) {
	saves := g.FindByClass("SaveImage")
	var upstream map[string]bool
	if len(saves) > 0 {
		upstream = g.Upstream(saves[0])
	}

	var fallback string
	for _, id := range g.FindByClass(classesWithRole(RoleSampler)...) {
		if upstream != nil && !upstream[id] {
			continue
		}
		if fallback == "" {
			fallback = id
		}
		if _, ok := traceInput(g, id, "latent_image", RoleLatent); ok {
			return id, true
		}
	}
	return fallback, fallback != ""
}

// traceInput follows input name of node id upstream until it reaches a node
// with the wanted role. Inputs of the same name are preferred at each hop so
// positive and negative conditioning chains stay apart.
func traceInput(g *Graph, id, input string, want Role) (string, bool) {
	ref, ok := g.InputRef(id, input)
	if !ok {
		return "", false
	}
	seen := map[string]bool{}
	current := ref.Node
	for !seen[current] {
		seen[current] = true
		node, ok := g.Nodes[current]
		if !ok {
			return "", false
		}
		if roleOf(node.ClassType) == want {
			return current, true
		}
		next, ok := nextHop(node, input, ref.Slot)
		if !ok {
			return "", false
		}
		ref = next
		current = next.Node
	}
	return "", false
}

func nextHop(node *Node, input string, slot int) (Ref, bool) {
	// ControlNetApplyAdvanced emits positive on slot 0 and negative on slot 1.
	if node.ClassType == "ControlNetApplyAdvanced" {
		name := "positive"
		if slot == 1 {
			name = "negative"
		}
		ref, ok := node.Inputs[name].(Ref)
		return ref, ok
	}
	preferred := []string{input, "conditioning", "samples", "model", "latent", "clip"}
	for _, name := range preferred {
		if ref, ok := node.Inputs[name].(Ref); ok {
			return ref, true
		}
	}
	return Ref{}, false
}

func setIfPresent(node *Node, input string, value any) {
	if _, ok := node.Inputs[input]; ok {
		node.Inputs[input] = value
	}
}

func classesWithRole(role Role) []string {
	var classes []string
	for class, spec := range Catalog {
		if spec.Role == role {
			classes = append(classes, class)
		}
	}
	return classes
}
