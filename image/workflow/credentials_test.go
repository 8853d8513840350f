package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectCredentials(t *testing.T) {
	tests := []struct {
		family     Family
		credential string
	}{
		{FamilyDalle, "openai"},
		{FamilyBfl, "bfl"},
		{FamilyIdeogram, "ideogram"},
	}

	for _, tt := range tests {
		test := tt
		t.Run(string(test.family), func(t *testing.T) {
			tmpl, err := NewLoader("").Load(test.family, false, false)
			require.NoError(t, err)

			creds := Credentials{test.credential: "secret-" + test.credential}
			require.NoError(t, InjectCredentials(tmpl.Graph, creds))
			assert.Equal(t, "secret-"+test.credential, tmpl.Graph.Nodes["1"].Inputs["api_key"])
		})
	}
}

func TestInjectCredentialsMissing(t *testing.T) {
	tmpl, err := NewLoader("").Load(FamilyBfl, false, false)
	require.NoError(t, err)

	err = InjectCredentials(tmpl.Graph, Credentials{"openai": "x", "bfl": "  "})

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "bfl", missing.Credential)
	assert.Contains(t, err.Error(), "bfl")
}

func TestInjectCredentialsLocalIsNoop(t *testing.T) {
	tmpl, err := NewLoader("").Load(FamilyLocal, true, true)
	require.NoError(t, err)
	before := tmpl.Graph.Clone()

	require.NoError(t, InjectCredentials(tmpl.Graph, nil))
	assert.Equal(t, before, tmpl.Graph)
}
