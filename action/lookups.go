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

// Package action holds the per-kind check_up compilers (C2): Watch,
// Change, Send, Find, and Get each validate their own literal fields and
// resolve symbolic id references to numeric indices using the lookup
// built from the previous phase.
package action

import "strconv"

// Lookup maps a symbolic reference - an explicit id, or the action's own
// positional index written as a decimal string - to its index within
// the compiled list. The rule compiler rebuilds one of these after each
// phase (watch, then change, then send, then find).
type Lookup map[string]int

// BuildLookup indexes n items by their explicit id (when non-empty) and
// always also by their positional index, so "apply: 0" resolves whether
// or not that action declared an id.
func BuildLookup(n int, id func(i int) string) Lookup {
	l := make(Lookup, n*2)
	for i := 0; i < n; i++ {
		l[strconv.Itoa(i)] = i
		if name := id(i); name != "" {
			l[name] = i
		}
	}
	return l
}

// Resolve looks up ref, returning false when it names nothing.
func (l Lookup) Resolve(ref string) (int, bool) {
	i, ok := l[ref]
	return i, ok
}
