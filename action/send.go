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
	"time"

	"github.com/redwire/redwire/rule"
	"github.com/redwire/redwire/xerr"
)

// CompiledSend is a Send after check_up: its `apply` reference resolved
// to a Change index, and repeat/timeout defaulted.
type CompiledSend struct {
	ID          string
	Index       int
	ChangeIndex int
	Repeat      int
	Timeout     time.Duration
}

// CheckUpSend validates and resolves one Send action against the lookup
// built from the already-compiled Change list.
func CheckUpSend(s rule.Send, index int, changes Lookup, ruleID string) (*CompiledSend, error) {
	loc := xerr.Locator{RuleID: ruleID, ActionKind: "send", ActionIdx: index, Field: "apply"}
	changeIdx, ok := changes.Resolve(s.Apply)
	if !ok {
		return nil, xerr.ErrUnresolvedChange(loc, s.Apply)
	}
	repeat := 0
	if s.Repeat != nil {
		if *s.Repeat < 0 {
			loc.Field = "repeat"
			return nil, xerr.ErrCompile(loc, "repeat must be >= 0, got %d", *s.Repeat)
		}
		repeat = *s.Repeat
	}
	timeout := time.Duration(0)
	if s.TimeoutAfter != nil {
		if *s.TimeoutAfter < 0 {
			loc.Field = "timeout_after"
			return nil, xerr.ErrCompile(loc, "timeout_after must be >= 0, got %d", *s.TimeoutAfter)
		}
		timeout = time.Duration(*s.TimeoutAfter) * time.Millisecond
	}
	return &CompiledSend{ID: s.ID, Index: index, ChangeIndex: changeIdx, Repeat: repeat, Timeout: timeout}, nil
}
