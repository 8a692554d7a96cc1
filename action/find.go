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
	"github.com/redwire/redwire/expr"
	"github.com/redwire/redwire/rule"
	"github.com/redwire/redwire/xerr"
)

// CompiledFind is a Find after check_up: its exec[] list compiled to an
// expr.Program, plus the set of Send indices it depends on (used both
// to validate the binding graph and, later, to select which send
// entries a finding must snapshot).
type CompiledFind struct {
	ID       string
	Index    int
	Program  *expr.Program
	SendDeps []int
}

// CheckUpFind delegates to expr.Compile, resolving "send id" references
// against the lookup built from the already-compiled Send list.
func CheckUpFind(f rule.Find, index int, sends Lookup, ruleID string) (*CompiledFind, error) {
	loc := xerr.Locator{RuleID: ruleID, ActionKind: "find", ActionIdx: index}
	resolve := func(id string) (int, bool) {
		idx, ok := sends.Resolve(id)
		if !ok {
			return 0, false
		}
		// Send ordinals in expr are 1-based (0 is reserved for "initial");
		// sends is 0-based positional, so shift by one.
		return idx + 1, true
	}
	prog, err := expr.Compile(f.Exec, loc, resolve)
	if err != nil {
		return nil, err
	}
	// expr.Program.SendDeps are already 1-based ordinals; convert back to
	// 0-based Send indices for the rest of the engine, which indexes
	// send_results by compiled Send position.
	deps := make([]int, len(prog.SendDeps))
	for i, d := range prog.SendDeps {
		deps[i] = d - 1
	}
	return &CompiledFind{ID: f.ID, Index: index, Program: prog, SendDeps: deps}, nil
}
