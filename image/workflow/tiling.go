package workflow

import "fmt"

type tilingPass struct {
	enabled  bool
	tileSize int
	overlap  int
}

func newTilingPass(req *GenerationRequest, enabled bool) *tilingPass {
	tile := clampInt(req.TileSize.Int(512), 64, 4096)
	overlap := clampInt(req.TileOverlap.Int(64), 0, tile/2)
	return &tilingPass{enabled: enabled, tileSize: tile, overlap: overlap}
}

func (p *tilingPass) Name() string  { return "tiling" }
func (p *tilingPass) Enabled() bool { return p.enabled }

func (p *tilingPass) Apply(g *Graph) error {
	sampler, err := requireSampler(g)
	if err != nil {
		return err
	}
	decodes := baseDecodes(g, sampler)
	if len(decodes) == 0 {
		return fmt.Errorf("no VAE decode reads sampler %s", sampler)
	}

	for _, id := range decodes {
		node := g.Nodes[id]
		node.ClassType = "VAEDecodeTiled"
		node.Inputs["tile_size"] = p.tileSize
		node.Inputs["overlap"] = p.overlap
		node.Inputs["temporal_size"] = 64
		node.Inputs["temporal_overlap"] = 8
		if node.Meta != nil {
			node.Meta.Title = "VAE Decode (Tiled)"
		}
	}
	return nil
}
