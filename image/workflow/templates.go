package workflow

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed templates/*.json templates/*.toml
var embedded embed.FS

type (
	// Bindings names which node inputs receive each core setting.
	Bindings struct {
		Name        string                `toml:"name"`
		Description string                `toml:"description"`
		Settings    map[string]SettingDef `toml:"settings"`
	}

	SettingDef struct {
		Targets []Target `toml:"targets"`
	}

	Target struct {
		Node  string `toml:"node"`
		Input string `toml:"input"`
	}

	Template struct {
		Name     string
		Family   Family
		Graph    *Graph
		Bindings Bindings
	}

	templateKey struct {
		family     Family
		controlnet bool
		lora       bool
	}

	// Loader reads templates from Dir when a file exists there and from the embedded set otherwise.
	Loader struct {
		Dir string
	}
)

var templateIndex = map[templateKey]string{
	{FamilyLocal, false, false}:    "local_core",
	{FamilyLocal, false, true}:     "local_lora",
	{FamilyLocal, true, false}:     "local_controlnet",
	{FamilyLocal, true, true}:      "local_controlnet_lora",
	{FamilyDalle, false, false}:    "dalle_core",
	{FamilyBfl, false, false}:      "bfl_core",
	{FamilyIdeogram, false, false}: "ideogram_core",
}

func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load returns a freshly parsed template for the family and feature combination.
func (l *Loader) Load(family Family, controlnet, lora bool) (*Template, error) {
	name, ok := templateIndex[templateKey{family, controlnet, lora}]
	if !ok {
		return nil, &TemplateNotFoundError{Family: family, ControlNet: controlnet, Lora: lora}
	}

	data, err := l.readFile(name + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	graph, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}

	bindingData, err := l.readFile(string(family) + ".toml")
	if err != nil {
		return nil, fmt.Errorf("failed to read bindings for %s: %w", family, err)
	}
	var bindings Bindings
	if _, err := toml.Decode(string(bindingData), &bindings); err != nil {
		return nil, fmt.Errorf("failed to parse bindings for %s: %w", family, err)
	}

	return &Template{Name: name, Family: family, Graph: graph, Bindings: bindings}, nil
}

func (l *Loader) readFile(name string) ([]byte, error) {
	if l.Dir != "" {
		data, err := os.ReadFile(filepath.Join(l.Dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return embedded.ReadFile("templates/" + name)
}

// Apply writes core settings into the bound inputs.
func (b Bindings) Apply(g *Graph, core CoreSettings) error {
	values := settingValues(core)
	for setting, def := range b.Settings {
		value, ok := values[setting]
		if !ok {
			return fmt.Errorf("binding for unknown setting %q", setting)
		}
		for _, target := range def.Targets {
			if !g.Set(target.Node, target.Input, value) {
				return fmt.Errorf("binding %s targets missing node %s", setting, target.Node)
			}
		}
	}
	return nil
}

func settingValues(core CoreSettings) map[string]any {
	return map[string]any{
		"prompt":          core.Prompt,
		"negative_prompt": core.NegativePrompt,
		"width":           core.Width,
		"height":          core.Height,
		"batch_size":      core.BatchSize,
		"steps":           core.Steps,
		"cfg_scale":       core.CfgScale,
		"sampler_name":    core.SamplerName,
		"scheduler":       core.Scheduler,
		"seed":            core.Seed,
		"denoise":         core.Denoise,
		"ckpt_name":       core.CkptName,
	}
}
