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

package action

import (
	"strings"

	"github.com/redwire/redwire/rule"
	"github.com/redwire/redwire/xerr"
)

// CompiledChange is a Change after check_up: its watch reference and
// capture group split apart and resolved to a numeric Watch index.
type CompiledChange struct {
	ID         string
	Index      int
	WatchIndex int
	Group      string // capture group name/index within the Watch; "0" when unspecified

	Kind      string // "modify" | "add"
	Placement rule.Placement
	Payloads  []string
	Header    rule.HeaderPair
}

// CheckUpChange validates and resolves one Change action against the
// lookup built from the already-compiled Watch list.
func CheckUpChange(c rule.Change, index int, watches Lookup, ruleID string) (*CompiledChange, error) {
	loc := xerr.Locator{RuleID: ruleID, ActionKind: "change", ActionIdx: index, Field: "watch_id"}

	ref, group, hasGroup := strings.Cut(c.WatchID, ".")
	if !hasGroup {
		group = "0"
	}
	watchIdx, ok := watches.Resolve(ref)
	if !ok {
		return nil, xerr.ErrUnresolvedWatch(loc, ref)
	}

	out := &CompiledChange{ID: c.ID, Index: index, WatchIndex: watchIdx, Group: group, Kind: c.Type.Kind}
	switch c.Type.Kind {
	case "modify":
		loc.Field = "type.modify.placement"
		switch rule.Placement(strings.ToLower(c.Type.Modify.Placement)) {
		case rule.PlacementBefore, rule.PlacementAfter, rule.PlacementReplace:
			out.Placement = rule.Placement(strings.ToLower(c.Type.Modify.Placement))
		default:
			return nil, xerr.ErrCompile(loc, "unknown placement %q", c.Type.Modify.Placement)
		}
		if len(c.Type.Modify.Payloads) == 0 {
			loc.Field = "type.modify.payloads"
			return nil, xerr.ErrCompile(loc, "modify change has no payloads")
		}
		out.Payloads = c.Type.Modify.Payloads
	case "add":
		loc.Field = "type.add.header.name"
		if strings.TrimSpace(c.Type.Add.Header.Name) == "" {
			return nil, xerr.ErrCompile(loc, "add change has an empty header name")
		}
		out.Header = c.Type.Add.Header
	default:
		return nil, xerr.ErrCompile(loc, "unknown change type %q", c.Type.Kind)
	}
	return out, nil
}
