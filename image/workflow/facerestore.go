package workflow

import (
	"strings"
)

var faceRestoreModels = map[string]string{
	"codeformer": "codeformer-v0.1.0.pth",
	"gfpgan":     "GFPGANv1.4.pth",
}

type faceRestorePass struct {
	enabled bool
	model   string
	weight  float64
}

func newFaceRestorePass(req *GenerationRequest, enabled bool) *faceRestorePass {
	name := strings.ToLower(strings.TrimSpace(req.FaceRestorationModel))
	if name == "" {
		name = "codeformer"
	}

	weight := req.CodeformerWeight.Float(0.5)
	if name == "gfpgan" {
		weight = req.GfpganWeight.Float(0.5)
	}

	model, ok := faceRestoreModels[name]
	if !ok {
		// Explicit weight files pass through; bare unknown names get CodeFormer.
		model = faceRestoreModels["codeformer"]
		if strings.Contains(req.FaceRestorationModel, ".") {
			model = strings.TrimSpace(req.FaceRestorationModel)
		}
	}

	return &faceRestorePass{enabled: enabled, model: model, weight: clampRange(weight, 0, 1)}
}

func (p *faceRestorePass) Name() string  { return "face_restoration" }
func (p *faceRestorePass) Enabled() bool { return p.enabled }

func (p *faceRestorePass) Apply(g *Graph) error {
	save, _, err := requireSave(g)
	if err != nil {
		return err
	}
	source, err := requireRef(g, save, "images")
	if err != nil {
		return err
	}

	loader := g.Add("FaceRestoreModelLoader", "Face Restore Model", map[string]any{
		"model_name": p.model,
	})
	restore := g.Add("FaceRestoreCFWithModel", "Face Restore", map[string]any{
		"facerestore_model":   Ref{Node: loader, Slot: 0},
		"image":               source,
		"facedetection":       "retinaface_resnet50",
		"codeformer_fidelity": p.weight,
	})
	g.Nodes[save].Inputs["images"] = Ref{Node: restore, Slot: 0}
	return nil
}
