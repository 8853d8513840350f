package comfyui

import (
	"fmt"
	"io"
	"sort"

	"dreamlayer/logger"

	"github.com/richinsley/comfy2go/client"
	"github.com/richinsley/comfy2go/graphapi"
)

// ModelOptions lists the choices the engine offers for one combo input of a
// node class, e.g. ControlNetLoader.control_net_name.
func (c *Client) ModelOptions(classType, input string) ([]string, error) {
	objects, err := c.engine.GetObjectInfos()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object info: %w", err)
	}

	object := objects.GetNodeObjectByName(classType)
	if object == nil {
		return nil, fmt.Errorf("engine has no %s node", classType)
	}

	values, ok := comboValues(object, input)
	if !ok {
		return nil, fmt.Errorf("%s has no %s choices", classType, input)
	}
	sort.Strings(values)
	return values, nil
}

func comboValues(object *graphapi.NodeObject, input string) ([]string, bool) {
	if prop, ok := object.InputPropertiesByID[input]; ok && prop != nil {
		if combo, ok := (*prop).ToComboProperty(); ok {
			return append([]string(nil), combo.Values...), true
		}
	}

	// Newer engines describe combos as ["COMBO", {"options": [...]}].
	if object.Input == nil {
		return nil, false
	}
	raw, ok := object.Input.Required[input]
	if !ok || raw == nil {
		return nil, false
	}
	spec, ok := (*raw).([]interface{})
	if !ok || len(spec) < 2 {
		return nil, false
	}
	extra, ok := spec[1].(map[string]interface{})
	if !ok {
		return nil, false
	}
	options, ok := extra["options"].([]interface{})
	if !ok {
		return nil, false
	}

	values := make([]string, 0, len(options))
	for _, option := range options {
		if s, ok := option.(string); ok {
			values = append(values, s)
		}
	}
	return values, true
}

// Upload copies an image into the engine's input folder and returns the name
// the engine stored it under.
func (c *Client) Upload(r io.Reader, filename string) (string, error) {
	name, err := c.engine.UploadFileFromReader(r, filename, true, client.InputImageType, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to engine: %w", filename, err)
	}
	logger.Debug("Forwarded upload to engine", "file", filename, "stored_as", name)
	return name, nil
}

// Interrupt stops whatever the engine is currently executing.
func (c *Client) Interrupt() error {
	if err := c.engine.Interrupt(); err != nil {
		return fmt.Errorf("failed to interrupt engine: %w", err)
	}
	logger.Info("Sent interrupt to engine")
	return nil
}

// SystemStats reports the engine host and its devices.
func (c *Client) SystemStats() (*client.SystemStats, error) {
	return c.engine.GetSystemStats()
}
