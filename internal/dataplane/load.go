// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dataplane

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"gopkg.in/yaml.v3"

	"grimm.is/dplink/internal/errors"
)

// yamlDocument ignores unknown top-level keys; entries are checked strictly.
type yamlDocument struct {
	Dataplanes yaml.Node `yaml:"dataplanes"`
}

var yamlEntryFields = map[string]bool{"name": true, "id": true}

type hclDocument struct {
	Dataplanes []hclDataplane `hcl:"dataplane,block"`
}

type hclDataplane struct {
	Name string `hcl:"name,label"`
	ID   int64  `hcl:"id"`
}

// Load reads the dataplane list at path. Files ending in .hcl are parsed as
// HCL, everything else as YAML.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.KindNotFound, "failed to open file %s", path)
		}
		return nil, errors.Wrapf(err, errors.KindInternal, "failed to open file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return ParseHCL(path, data)
	default:
		return ParseYAML(data)
	}
}

// ParseYAML decodes a document of the form:
//
//	dataplanes:
//	  - name: alpha
//	    id: 1
func ParseYAML(data []byte) (*List, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.KindDecode, "failed to parse dataplanes from YAML")
	}

	seq := &doc.Dataplanes
	switch {
	case seq.Kind == 0, seq.Kind == yaml.ScalarNode && seq.Tag == "!!null":
		return NewList(nil)
	case seq.Kind == yaml.SequenceNode:
	default:
		return nil, errors.Errorf(errors.KindDecode, "line %d: dataplanes must be a list", seq.Line)
	}

	dps := make([]Dataplane, 0, len(seq.Content))
	for i, entry := range seq.Content {
		if entry.Kind != yaml.MappingNode {
			return nil, errors.Errorf(errors.KindDecode, "line %d: dataplanes[%d] must be a mapping", entry.Line, i)
		}
		for j := 0; j+1 < len(entry.Content); j += 2 {
			key := entry.Content[j]
			if !yamlEntryFields[key.Value] {
				return nil, errors.Errorf(errors.KindDecode, "line %d: dataplanes[%d]: unknown field %q", key.Line, i, key.Value)
			}
		}
		var dp Dataplane
		if err := entry.Decode(&dp); err != nil {
			return nil, errors.Wrapf(err, errors.KindDecode, "failed to parse dataplanes[%d] from YAML", i)
		}
		dps = append(dps, dp)
	}
	return NewList(dps)
}

// ParseHCL decodes a document of the form:
//
//	dataplane "alpha" {
//	  id = 1
//	}
//
// filename is only used in diagnostics and must end in .hcl.
func ParseHCL(filename string, data []byte) (*List, error) {
	var doc hclDocument
	if err := hclsimple.Decode(filename, data, nil, &doc); err != nil {
		return nil, errors.Wrap(err, errors.KindDecode, "failed to parse dataplanes from HCL")
	}

	dps := make([]Dataplane, 0, len(doc.Dataplanes))
	for _, d := range doc.Dataplanes {
		if d.ID < 0 || d.ID > math.MaxUint32 {
			return nil, errors.Errorf(errors.KindValidation, "dataplane %q: id %d out of range", d.Name, d.ID)
		}
		dps = append(dps, Dataplane{Name: d.Name, ID: uint32(d.ID)})
	}
	return NewList(dps)
}
