package workflow

import "strings"

// Credentials maps provider names (openai, bfl, ideogram) to API keys.
type Credentials map[string]string

// InjectCredentials sets api_key on every node whose class needs one.
// Graphs without such nodes are left untouched.
func InjectCredentials(g *Graph, creds Credentials) error {
	for _, id := range g.IDs() {
		node := g.Nodes[id]
		credential := Catalog[node.ClassType].Credential
		if credential == "" {
			continue
		}
		key := strings.TrimSpace(creds[credential])
		if key == "" {
			return &MissingCredentialError{Credential: credential, Node: node.ClassType}
		}
		node.Inputs["api_key"] = key
	}
	return nil
}
