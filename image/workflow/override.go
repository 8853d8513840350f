package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dreamlayer/logger"
)

// Override produces the working graph. A usable custom workflow wins; any
// problem with it is logged and the template is bound instead. The second
// return value reports whether the custom workflow was used.
func Override(tmpl *Template, core CoreSettings, custom json.RawMessage, creds Credentials) (*Graph, bool, error) {
	if hasCustom(custom) {
		merged, err := MergeCustom(custom, core, creds)
		if err == nil {
			logger.Debug("Using custom workflow", "nodes", len(merged.Nodes))
			return merged, true, nil
		}
		logger.Warn("Falling back to template overrides", "template", tmpl.Name, "error", err)
	}

	g := tmpl.Graph.Clone()
	if err := tmpl.Bindings.Apply(g, core); err != nil {
		return nil, false, fmt.Errorf("template %s: %w", tmpl.Name, err)
	}
	return g, false, nil
}

func hasCustom(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte("{}"))
}
