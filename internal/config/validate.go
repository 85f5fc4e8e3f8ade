package config

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalidSettings is matched by every *SettingsError.
var ErrInvalidSettings = errors.New("config schema validation failed")

var settingsSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// Violation is one schema failure. Field is the dotted settings key, e.g. "evaluation.min_score".
type Violation struct {
	Field   string
	Message string
}

// SettingsError lists schema violations ordered by field.
type SettingsError struct {
	Violations []Violation
}

func (e *SettingsError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidSettings, strings.Join(parts, "; "))
}

// Is reports whether target is ErrInvalidSettings.
func (e *SettingsError) Is(target error) bool {
	return target == ErrInvalidSettings
}

// ValidateSettings checks raw settings (as returned by viper.AllSettings) against schema.json.
func ValidateSettings(settings map[string]any) error {
	schema, err := settingsSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(settings))
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	out := &SettingsError{Violations: make([]Violation, 0, len(result.Errors()))}
	for _, re := range result.Errors() {
		out.Violations = append(out.Violations, Violation{Field: violationField(re), Message: re.Description()})
	}
	sort.SliceStable(out.Violations, func(i, j int) bool {
		return out.Violations[i].Field < out.Violations[j].Field
	})
	return out
}

// violationField names the offending key; unknown keys are reported by their own path.
func violationField(re gojsonschema.ResultError) string {
	field := re.Field()
	if field == "(root)" {
		field = ""
	}
	if re.Type() == "additional_property_not_allowed" {
		if prop, ok := re.Details()["property"].(string); ok {
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	if field == "" {
		return "config"
	}
	return field
}
