package workflow

import (
	"fmt"
	"strings"
)

type (
	// FieldError describes one rejected request field. Loc mixes field names and list indices.
	FieldError struct {
		Loc  []any  `json:"loc"`
		Msg  string `json:"msg"`
		Type string `json:"type"`
	}

	ValidationError struct {
		Details []FieldError
	}

	TemplateNotFoundError struct {
		Family     Family
		ControlNet bool
		Lora       bool
	}

	MissingCredentialError struct {
		Credential string
		Node       string
	}

	CustomWorkflowError struct {
		Err error
	}

	FeatureInjectionError struct {
		Pass string
		Err  error
	}
)

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		loc := make([]string, 0, len(d.Loc))
		for _, l := range d.Loc {
			loc = append(loc, fmt.Sprint(l))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(loc, "."), d.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no workflow template for family %s (controlnet=%t, lora=%t)", e.Family, e.ControlNet, e.Lora)
}

func (e *TemplateNotFoundError) Is(target error) bool {
	_, ok := target.(*TemplateNotFoundError)
	return ok
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing API key %q required by node %s", e.Credential, e.Node)
}

func (e *MissingCredentialError) Is(target error) bool {
	_, ok := target.(*MissingCredentialError)
	return ok
}

func (e *CustomWorkflowError) Error() string {
	return fmt.Sprintf("custom workflow rejected: %v", e.Err)
}

func (e *CustomWorkflowError) Unwrap() error {
	return e.Err
}

func (e *FeatureInjectionError) Error() string {
	return fmt.Sprintf("%s injection failed: %v", e.Pass, e.Err)
}

func (e *FeatureInjectionError) Unwrap() error {
	return e.Err
}

func (e *FeatureInjectionError) Is(target error) bool {
	_, ok := target.(*FeatureInjectionError)
	return ok
}
