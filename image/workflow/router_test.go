package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteDefaultRules(t *testing.T) {
	router := NewRouter(nil)

	tests := map[string]Family{
		"dall-e-3":                    FamilyDalle,
		"dall-e-2":                    FamilyDalle,
		"flux-pro":                    FamilyBfl,
		"flux-dev":                    FamilyBfl,
		"ideogram-v3":                 FamilyIdeogram,
		"My-IDEOGRAM-Model":           FamilyIdeogram,
		"juggernautXL_v8.safetensors": FamilyLocal,
		"flux-pro-1.1":                FamilyLocal,
		"DALL-E-3":                    FamilyLocal,
		"":                            FamilyLocal,
	}

	for model, want := range tests {
		assert.Equal(t, want, router.Route(model), "model %q", model)
	}
}

func TestRouteConfiguredRules(t *testing.T) {
	router := NewRouter([]Rule{
		{Name: "flux-pro-ultra", Family: FamilyBfl},
		{Contains: "dall", Family: FamilyDalle},
		{Name: "dall-e-local", Family: FamilyLocal},
	})

	assert.Equal(t, FamilyBfl, router.Route("flux-pro-ultra"))
	assert.Equal(t, FamilyDalle, router.Route("my-DALL-model"))
	// Exact names are consulted before substring rules.
	assert.Equal(t, FamilyLocal, router.Route("dall-e-local"))
	// Configured rules replace the defaults.
	assert.Equal(t, FamilyLocal, router.Route("ideogram"))
}

func TestParseFamily(t *testing.T) {
	family, err := ParseFamily(" BFL ")
	assert.NoError(t, err)
	assert.Equal(t, FamilyBfl, family)

	_, err = ParseFamily("midjourney")
	assert.Error(t, err)
}
