// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rule

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes the Change `type` tagged union:
//
//	type:
//	  modify:
//	    placement: replace
//	    payloads: ["'", "\" OR 1=1 --"]
//
// or
//
//	type:
//	  add:
//	    header: {name: X-Forwarded-For, value: "127.0.0.1"}
func (c *ChangeType) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Modify *ModifyChange `yaml:"modify"`
		Add    *AddChange    `yaml:"add"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.Modify != nil && raw.Add != nil:
		return fmt.Errorf("change type: exactly one of modify/add, got both")
	case raw.Modify != nil:
		c.Kind = "modify"
		c.Modify = raw.Modify
	case raw.Add != nil:
		c.Kind = "add"
		c.Add = raw.Add
	default:
		return fmt.Errorf("change type: exactly one of modify/add, got neither")
	}
	return nil
}

// UnmarshalYAML decodes a Get's `extract` field, of the form
// "request.line", "response.match", or "request.group(csrf_token)".
func (e *ExtractPart) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	side, mode, found := strings.Cut(raw, ".")
	if !found {
		return fmt.Errorf("extract %q: expected \"<side>.<mode>\"", raw)
	}
	e.Side = strings.ToLower(strings.TrimSpace(side))
	mode = strings.TrimSpace(mode)
	lower := strings.ToLower(mode)
	switch {
	case lower == "line":
		e.Mode = ExtractMode{Kind: "line"}
	case lower == "match":
		e.Mode = ExtractMode{Kind: "match"}
	case strings.HasPrefix(lower, "group(") && strings.HasSuffix(mode, ")"):
		// Preserve the group name's original case; only the "group(...)"
		// wrapper is matched case-insensitively.
		inner := mode[len("group(") : len(mode)-1]
		e.Mode = ExtractMode{Kind: "group", Group: strings.TrimSpace(inner)}
	default:
		return fmt.Errorf("extract %q: unrecognized mode %q", raw, mode)
	}
	return nil
}
