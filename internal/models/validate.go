package models

import "regexp"

// borderColorRe matches a 6-digit hex RGB value with an optional leading #.
var borderColorRe = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// ValidationErrors maps a field name to a human-readable message.
type ValidationErrors map[string]string

// ValidatePhotoMeta checks the mutable photo fields. It returns nil when
// both values are acceptable.
func ValidatePhotoMeta(name, borderColor string) ValidationErrors {
	errs := ValidationErrors{}
	if name == "" {
		errs["name"] = "name is required"
	}
	if !borderColorRe.MatchString(borderColor) {
		errs["border_color"] = "border_color must be a 6-digit hex RGB value"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
