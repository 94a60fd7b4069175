// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dataplane

import (
	"fmt"
	"regexp"
	"strings"
)

// maxNameLen keeps "dp-<name>" within the kernel's 127-byte altname limit.
const maxNameLen = 124

// validName is the intersection of what podman accepts as a pod name and
// systemd as an unescaped instance name.
var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidationError represents a dataplane list validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate checks names and rejects duplicate names or ids.
func (l *List) Validate() ValidationErrors {
	var errs ValidationErrors
	names := make(map[string]int, len(l.dataplanes))
	ids := make(map[uint32]int, len(l.dataplanes))

	for i, dp := range l.dataplanes {
		field := fmt.Sprintf("dataplanes[%d]", i)

		switch {
		case dp.Name == "":
			errs = append(errs, ValidationError{Field: field + ".name", Message: "name is required"})
		case len(dp.Name) > maxNameLen:
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("name %q is longer than %d bytes", dp.Name, maxNameLen),
			})
		case !validName.MatchString(dp.Name):
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("name %q must match %s", dp.Name, validName),
			})
		}

		if dp.Name != "" {
			if prev, dup := names[dp.Name]; dup {
				errs = append(errs, ValidationError{
					Field:   field + ".name",
					Message: fmt.Sprintf("duplicate name %q (first defined at dataplanes[%d])", dp.Name, prev),
				})
			} else {
				names[dp.Name] = i
			}
		}

		if prev, dup := ids[dp.ID]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate id %d (first defined at dataplanes[%d])", dp.ID, prev),
			})
		} else {
			ids[dp.ID] = i
		}
	}
	return errs
}
