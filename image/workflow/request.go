package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

type (
	// GenerationRequest is the txt2img request body.
	GenerationRequest struct {
		Prompt         string `json:"prompt"`
		NegativePrompt string `json:"negative_prompt"`
		Width          Number `json:"width"`
		Height         Number `json:"height"`
		BatchSize      Number `json:"batch_size"`
		Steps          Number `json:"steps"`
		CfgScale       Number `json:"cfg_scale"`
		SamplerName    string `json:"sampler_name"`
		Scheduler      string `json:"scheduler"`
		Seed           Number `json:"seed"`
		Model          string `json:"model"`

		Lora       *LoraSettings       `json:"lora"`
		ControlNet *ControlNetSettings `json:"controlnet"`

		RestoreFaces         Flag   `json:"restore_faces"`
		FaceRestorationModel string `json:"face_restoration_model"`
		CodeformerWeight     Number `json:"codeformer_weight"`
		GfpganWeight         Number `json:"gfpgan_weight"`

		Tiling      Flag   `json:"tiling"`
		TileSize    Number `json:"tile_size"`
		TileOverlap Number `json:"tile_overlap"`

		HiresFix                  Flag   `json:"hires_fix"`
		HiresFixUpscaleMethod     string `json:"hires_fix_upscale_method"`
		HiresFixUpscaleFactor     Number `json:"hires_fix_upscale_factor"`
		HiresFixHiresSteps        Number `json:"hires_fix_hires_steps"`
		HiresFixDenoisingStrength Number `json:"hires_fix_denoising_strength"`
		HiresFixResizeWidth       Number `json:"hires_fix_resize_width"`
		HiresFixResizeHeight      Number `json:"hires_fix_resize_height"`
		HiresFixUpscaler          string `json:"hires_fix_upscaler"`

		RefinerEnabled  Flag   `json:"refiner_enabled"`
		RefinerModel    string `json:"refiner_model"`
		RefinerSwitchAt Number `json:"refiner_switch_at"`

		CustomWorkflow json.RawMessage `json:"custom_workflow"`
	}

	LoraSettings struct {
		Enabled       Flag        `json:"enabled"`
		LoraName      string      `json:"lora_name"`
		Strength      Number      `json:"strength"`
		StrengthModel Number      `json:"strength_model"`
		StrengthClip  Number      `json:"strength_clip"`
		Loras         []LoraEntry `json:"loras" validate:"dive"`
	}

	LoraEntry struct {
		Name          string `json:"name" validate:"required"`
		Strength      Number `json:"strength"`
		StrengthModel Number `json:"strength_model"`
		StrengthClip  Number `json:"strength_clip"`
	}

	ControlNetSettings struct {
		Enabled Flag             `json:"enabled"`
		Units   []ControlNetUnit `json:"units" validate:"dive"`
	}

	ControlNetUnit struct {
		Enabled       Flag   `json:"enabled"`
		InputImage    string `json:"input_image"`
		Model         string `json:"model"`
		Module        string `json:"module"`
		Weight        Number `json:"weight"`
		GuidanceStart Number `json:"guidance_start"`
		GuidanceEnd   Number `json:"guidance_end"`
		ResizeMode    string `json:"resize_mode"`
		ProcessorRes  Number `json:"processor_res"`
	}

	FeatureToggles struct {
		UseControlNet      bool
		UseLora            bool
		UseFaceRestoration bool
		UseTiling          bool
		HiresFix           bool
		RefinerEnabled     bool
	}
)

// Active reports whether the unit takes part in generation. Units without an enabled flag are off.
func (u ControlNetUnit) Active() bool {
	return u.Enabled.On()
}

func (c *ControlNetSettings) ActiveUnits() []ControlNetUnit {
	if c == nil {
		return nil
	}
	var active []ControlNetUnit
	for _, unit := range c.Units {
		if unit.Active() {
			active = append(active, unit)
		}
	}
	return active
}

func (r *GenerationRequest) Toggles() FeatureToggles {
	return FeatureToggles{
		UseControlNet:      r.ControlNet != nil && r.ControlNet.Enabled.On() && len(r.ControlNet.ActiveUnits()) > 0,
		UseLora:            r.Lora != nil && r.Lora.Enabled.On(),
		UseFaceRestoration: r.RestoreFaces.On(),
		UseTiling:          r.Tiling.On(),
		HiresFix:           r.HiresFix.On(),
		RefinerEnabled:     r.RefinerEnabled.On(),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateLora, LoraSettings{})
	v.RegisterStructValidation(validateControlNetUnit, ControlNetUnit{})
	v.RegisterStructValidation(validateRequest, GenerationRequest{})
	return v
}

func validateLora(sl validator.StructLevel) {
	lora := sl.Current().Interface().(LoraSettings)
	if lora.Enabled.On() && strings.TrimSpace(lora.LoraName) == "" && len(lora.Loras) == 0 {
		sl.ReportError(lora.LoraName, "lora_name", "LoraName", "required_when_enabled", "")
	}
}

func validateControlNetUnit(sl validator.StructLevel) {
	unit := sl.Current().Interface().(ControlNetUnit)
	if !unit.Active() {
		return
	}
	if strings.TrimSpace(unit.Model) == "" {
		sl.ReportError(unit.Model, "model", "Model", "required_when_enabled", "")
	}
	if strings.TrimSpace(unit.InputImage) == "" {
		sl.ReportError(unit.InputImage, "input_image", "InputImage", "required_when_enabled", "")
	}
}

func validateRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(GenerationRequest)
	if req.RefinerEnabled.On() {
		model := strings.TrimSpace(req.RefinerModel)
		if model == "" || strings.EqualFold(model, "none") {
			sl.ReportError(req.RefinerModel, "refiner_model", "RefinerModel", "required_when_enabled", "")
		}
	}
}

// DecodeRequest parses and validates a request body. Failures are *ValidationError.
func DecodeRequest(body []byte) (*GenerationRequest, error) {
	var req GenerationRequest

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ValidationError{Details: []FieldError{{
			Loc: []any{"body"}, Msg: "Request body is empty", Type: "missing",
		}}}
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &ValidationError{Details: []FieldError{decodeFieldError(err)}}
	}

	var details []FieldError
	if !promptPresent(body) {
		details = append(details, FieldError{Loc: []any{"prompt"}, Msg: "Field required", Type: "missing"})
	}

	if err := validate.Struct(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate request: %w", err)
		}
		for _, fe := range fieldErrs {
			details = append(details, toFieldError(fe))
		}
	}

	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}
	return &req, nil
}

// promptPresent reports whether the body carries a non-null prompt. An empty
// string counts as present.
func promptPresent(body []byte) bool {
	var fields struct {
		Prompt *json.RawMessage `json:"prompt"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	return fields.Prompt != nil
}

func decodeFieldError(err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []any{"body"}
		if typeErr.Field != "" {
			loc = splitPath(typeErr.Field)
		}
		kind := "type_error"
		msg := fmt.Sprintf("Input should be a valid %s", typeErr.Type.Kind())
		switch typeErr.Type.Kind() {
		case reflect.String:
			kind, msg = "string_type", "Input should be a valid string"
		case reflect.Struct, reflect.Map, reflect.Ptr:
			kind, msg = "dict_type", "Input should be a valid dictionary"
		case reflect.Slice:
			kind, msg = "list_type", "Input should be a valid list"
		}
		return FieldError{Loc: loc, Msg: msg, Type: kind}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return FieldError{
			Loc:  []any{"body", int(syntaxErr.Offset)},
			Msg:  "Invalid JSON: " + syntaxErr.Error(),
			Type: "json_invalid",
		}
	}

	return FieldError{Loc: []any{"body"}, Msg: err.Error(), Type: "json_invalid"}
}

func toFieldError(fe validator.FieldError) FieldError {
	// Namespace is "GenerationRequest.controlnet.units[0].model"; drop the type name.
	namespace := fe.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}

	msg, kind := "Value error", "value_error"
	switch fe.Tag() {
	case "required":
		msg, kind = "Field required", "missing"
	case "required_when_enabled":
		msg, kind = "Field required when the feature is enabled", "missing"
	}

	return FieldError{Loc: splitPath(namespace), Msg: msg, Type: kind}
}

// splitPath turns "units[0].model" into ["units", 0, "model"].
func splitPath(path string) []any {
	var loc []any
	for _, part := range strings.Split(path, ".") {
		for part != "" {
			open := strings.Index(part, "[")
			if open < 0 {
				loc = append(loc, part)
				break
			}
			if open > 0 {
				loc = append(loc, part[:open])
			}
			end := strings.Index(part, "]")
			if end < open {
				loc = append(loc, part[open:])
				break
			}
			if n, err := strconv.Atoi(part[open+1 : end]); err == nil {
				loc = append(loc, n)
			} else {
				loc = append(loc, part[open+1:end])
			}
			part = part[end+1:]
		}
	}
	return loc
}
