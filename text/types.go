package text

import "context"

type (
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	// Kind selects which side of a prompt pair a suggestion is for.
	Kind string

	// Provider produces one prompt suggestion. history holds earlier
	// exchanges for the same kind, oldest first.
	Provider interface {
		Name() string
		Suggest(ctx context.Context, kind Kind, history []Message) (string, error)
	}
)

const (
	Positive Kind = "positive"
	Negative Kind = "negative"
)

// ParseKind maps the query value to a Kind. Anything but "negative" is positive.
func ParseKind(s string) Kind {
	if Kind(s) == Negative {
		return Negative
	}
	return Positive
}
