package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// upscalerModels maps upscaler display names to weight files.
var upscalerModels = map[string]string{
	"4x-ultrasharp":         "4x-UltraSharp.pth",
	"esrgan":                "ESRGAN_4x.pth",
	"esrgan_4x":             "ESRGAN_4x.pth",
	"r-esrgan 4x":           "RealESRGAN_x4plus.pth",
	"r-esrgan 4x+":          "RealESRGAN_x4plus.pth",
	"r-esrgan 4x+ anime6b":  "RealESRGAN_x4plus_anime_6B.pth",
	"realesrgan_x4plus":     "RealESRGAN_x4plus.pth",
	"swinir":                "SwinIR_4x.pth",
	"swinir_4x":             "SwinIR_4x.pth",
	"4x_nmkd-siax_200k":     "4x_NMKD-Siax_200k.pth",
	"4x_foolhardy_remacri":  "4x_foolhardy_Remacri.pth",
	"ldsr":                  "LDSR.ckpt",
	"scunet":                "ScuNET.pth",
	"4x-animesharp":         "4x-AnimeSharp.pth",
	"realesrgan_x2plus":     "RealESRGAN_x2plus.pth",
	"r-esrgan 2x+":          "RealESRGAN_x2plus.pth",
	"4x_realisticrescaler":  "4x_RealisticRescaler_100000_G.pth",
	"4x-realisticrescaler":  "4x_RealisticRescaler_100000_G.pth",
	"4x_nickelbackfs_72000": "4x_NickelbackFS_72000_G.pth",
}

// UpscalerModel resolves an upscaler name. The second value is false when the
// upscale should be a plain resize with no model.
func UpscalerModel(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "none", "latent", "lanczos", "nearest", "bilinear", "bicubic":
		return "", false
	}
	if model, ok := upscalerModels[key]; ok {
		return model, true
	}
	return strings.TrimSpace(name), true
}

// UpscalerFiles lists the distinct weight files behind the known upscaler names.
func UpscalerFiles() []string {
	seen := map[string]bool{}
	files := make([]string, 0, len(upscalerModels))
	for _, file := range upscalerModels {
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	sort.Strings(files)
	return files
}

type hiresFixPass struct {
	enabled      bool
	method       string
	factor       float64
	steps        int
	denoise      float64
	resizeWidth  int
	resizeHeight int
	upscaler     string
	baseWidth    int
	baseHeight   int
}

func newHiresFixPass(req *GenerationRequest, core CoreSettings, enabled bool) *hiresFixPass {
	method := strings.ToLower(strings.TrimSpace(req.HiresFixUpscaleMethod))
	if method == "" {
		method = "upscale-by"
	}

	steps := req.HiresFixHiresSteps.Int(0)
	if steps <= 0 {
		steps = core.Steps
	}

	upscaler := req.HiresFixUpscaler
	if strings.TrimSpace(upscaler) == "" {
		upscaler = "4x-ultrasharp"
	}

	return &hiresFixPass{
		enabled:      enabled,
		method:       method,
		factor:       clampRange(req.HiresFixUpscaleFactor.Float(2.5), 1, 4),
		steps:        clampInt(steps, 1, 150),
		denoise:      clampRange(req.HiresFixDenoisingStrength.Float(0.5), 0, 1),
		resizeWidth:  clampInt(req.HiresFixResizeWidth.Int(4000), minDimension, 8192),
		resizeHeight: clampInt(req.HiresFixResizeHeight.Int(4000), minDimension, 8192),
		upscaler:     upscaler,
		baseWidth:    core.Width,
		baseHeight:   core.Height,
	}
}

func (p *hiresFixPass) Name() string  { return "hires_fix" }
func (p *hiresFixPass) Enabled() bool { return p.enabled }

// targetSize returns the upscaled dimensions, snapped to multiples of 8.
func (p *hiresFixPass) targetSize(width, height int) (int, int) {
	if p.method == "upscale-to" {
		return roundTo(float64(p.resizeWidth), 8), roundTo(float64(p.resizeHeight), 8)
	}
	return roundTo(float64(width)*p.factor, 8), roundTo(float64(height)*p.factor, 8)
}

func (p *hiresFixPass) Apply(g *Graph) error {
	sampler, err := requireSampler(g)
	if err != nil {
		return err
	}
	decodes := baseDecodes(g, sampler)
	if len(decodes) == 0 {
		return fmt.Errorf("no VAE decode reads sampler %s", sampler)
	}
	decode := decodes[0]

	vae, err := requireRef(g, decode, "vae")
	if err != nil {
		return err
	}
	model, err := requireRef(g, sampler, "model")
	if err != nil {
		return err
	}
	positive, err := requireRef(g, sampler, "positive")
	if err != nil {
		return err
	}
	negative, err := requireRef(g, sampler, "negative")
	if err != nil {
		return err
	}

	width, height := p.baseWidth, p.baseHeight
	if latent, ok := traceInput(g, sampler, "latent_image", RoleLatent); ok {
		if w, ok := g.Number(latent, "width"); ok {
			width = int(w)
		}
		if h, ok := g.Number(latent, "height"); ok {
			height = int(h)
		}
	}
	targetWidth, targetHeight := p.targetSize(width, height)

	base := g.Nodes[sampler]
	seed, ok := base.Inputs["seed"]
	if !ok {
		seed = base.Inputs["noise_seed"]
	}

	decoded := Ref{Node: decode, Slot: 0}
	image := decoded
	if upscaleModel, useModel := UpscalerModel(p.upscaler); useModel {
		loader := g.Add("UpscaleModelLoader", "Upscale Model", map[string]any{"model_name": upscaleModel})
		upscaled := g.Add("ImageUpscaleWithModel", "Upscale Image (using Model)", map[string]any{
			"upscale_model": Ref{Node: loader, Slot: 0},
			"image":         decoded,
		})
		image = Ref{Node: upscaled, Slot: 0}
	}

	scale := g.Add("ImageScale", "Hires Resize", map[string]any{
		"image":          image,
		"upscale_method": "lanczos",
		"width":          targetWidth,
		"height":         targetHeight,
		"crop":           "disabled",
	})
	encode := g.Add("VAEEncode", "Hires Encode", map[string]any{
		"pixels": Ref{Node: scale, Slot: 0},
		"vae":    vae,
	})
	hires := g.Add("KSampler", "Hires Sampler", map[string]any{
		"model":        model,
		"positive":     positive,
		"negative":     negative,
		"latent_image": Ref{Node: encode, Slot: 0},
		"seed":         seed,
		"steps":        p.steps,
		"cfg":          base.Inputs["cfg"],
		"sampler_name": base.Inputs["sampler_name"],
		"scheduler":    base.Inputs["scheduler"],
		"denoise":      p.denoise,
	})
	hiresDecode := g.Add("VAEDecode", "Hires Decode", map[string]any{
		"samples": Ref{Node: hires, Slot: 0},
		"vae":     vae,
	})

	// Everything that read the base image now reads the hires one.
	g.Rewire(decoded, Ref{Node: hiresDecode, Slot: 0}, scale, image.Node)
	return nil
}
