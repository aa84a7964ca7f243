package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog maps a controller version string to the firmware release set
// published for that version.
type Catalog map[string]*ControllerRelease

// ControllerRelease is the release set for one controller version.
// Codes preserves the document order of the release object so that batch
// operations walk the catalog in a stable, reproducible order.
type ControllerRelease struct {
	Release map[string]*FirmwareRelease `json:"release"`
	Codes   []string                    `json:"-"`
}

// FirmwareRelease describes one downloadable firmware image.
type FirmwareRelease struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	MD5Sum  string `json:"md5sum"`
}

// UnmarshalJSON decodes the release object while recording key order.
// encoding/json map decoding would randomize it.
func (cr *ControllerRelease) UnmarshalJSON(data []byte) error {
	var raw struct {
		Release json.RawMessage `json:"release"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	cr.Release = make(map[string]*FirmwareRelease)
	cr.Codes = nil
	if len(raw.Release) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Release))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("release: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		code, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("release: expected string key, got %v", keyTok)
		}

		var rel FirmwareRelease
		if err := dec.Decode(&rel); err != nil {
			return fmt.Errorf("release %q: %w", code, err)
		}

		cr.Release[code] = &rel
		cr.Codes = append(cr.Codes, code)
	}

	// consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	return nil
}

// MarshalJSON round-trips the release object; key order on output follows
// Codes when present.
func (cr *ControllerRelease) MarshalJSON() ([]byte, error) {
	type alias struct {
		Release map[string]*FirmwareRelease `json:"release"`
	}
	return json.Marshal(alias{Release: cr.Release})
}
