package text

import (
	"context"
	"crypto/rand"
	"math/big"
)

var (
	positiveSamples = []string{
		"a futuristic city at night, cyberpunk, neon reflections on wet streets, high detail",
		"a red bicycle leaning against a sunlit brick wall, morning light, shallow depth of field, 35mm photo",
		"an ancient library inside a hollow tree, warm lantern light, dust motes, fantasy illustration",
		"a lighthouse on a cliff during a storm, crashing waves, dramatic clouds, oil painting",
		"portrait of an elderly fisherman, weathered skin, soft window light, detailed, 85mm",
		"a cozy cabin in a snowy pine forest at dusk, smoke from the chimney, golden windows",
		"a koi pond in a japanese garden, autumn maple leaves, overcast light, watercolor",
		"an astronaut floating above a glowing nebula, cinematic lighting, ultra detailed",
	}
	negativeSamples = []string{
		"blurry, low-res, distorted",
		"lowres, bad anatomy, extra fingers, watermark, jpeg artifacts",
		"out of focus, overexposed, washed out colors, text, signature",
		"deformed hands, duplicate limbs, cropped, worst quality, noise",
		"cartoonish, flat lighting, oversaturated, frame, border",
	}
)

// Static picks from a fixed sample list. It never fails, so it doubles as
// the fallback for the model-backed providers.
type Static struct{}

func (Static) Name() string {
	return "static"
}

// Suggest returns a random sample that is not among the recent suggestions
// when one exists.
func (Static) Suggest(_ context.Context, kind Kind, history []Message) (string, error) {
	samples := positiveSamples
	if kind == Negative {
		samples = negativeSamples
	}

	recent := make(map[string]bool, len(history))
	for _, msg := range history {
		if msg.Role == "assistant" {
			recent[msg.Content] = true
		}
	}

	fresh := make([]string, 0, len(samples))
	for _, s := range samples {
		if !recent[s] {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		fresh = samples
	}

	return fresh[randomIndex(len(fresh))], nil
}

func randomIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(i.Int64())
}
