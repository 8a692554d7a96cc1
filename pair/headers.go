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

// Package pair models the captured HTTP exchange the engine consumes. It
// intentionally does not parse wire format: a Pair already arrives
// structured (method/path/version/headers/body), the way the proxy that
// produced it would hand it off - the core only ever does line/header/body
// segmentation of an already-structured request.
package pair

import "strings"

// HeaderEntry is one name/value pair, order-preserving.
type HeaderEntry struct {
	Name  string
	Value string
}

// Headers is an ordered multimap: a name may repeat (e.g. Set-Cookie),
// and the engine's line model needs a stable, repeatable line ordering.
type Headers struct {
	entries []HeaderEntry
}

func NewHeaders() *Headers {
	return &Headers{}
}

func HeadersFrom(entries []HeaderEntry) *Headers {
	h := &Headers{entries: make([]HeaderEntry, len(entries))}
	copy(h.entries, entries)
	return h
}

// Add appends a header, preserving any existing entries of the same name.
func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, HeaderEntry{Name: name, Value: value})
}

// Get returns the first value for name (case-insensitive), if any.
func (h *Headers) Get(name string) (string, bool) {
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under name, in insertion order.
func (h *Headers) Values(name string) []string {
	var out []string
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			out = append(out, e.Value)
		}
	}
	return out
}

// Set replaces Content-Length-style singleton headers, adding the header
// if absent.
func (h *Headers) Set(name, value string) {
	for i, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			h.entries[i].Value = value
			return
		}
	}
	h.Add(name, value)
}

// Len is the number of header lines (not unique names).
func (h *Headers) Len() int { return len(h.entries) }

// At returns the i-th header entry as it would be rendered on the wire.
func (h *Headers) At(i int) HeaderEntry { return h.entries[i] }

// Lines renders every header as "Name: Value", in the canonical order
// used by the line model (one line per entry, duplicates included).
func (h *Headers) Lines() []string {
	lines := make([]string, len(h.entries))
	for i, e := range h.entries {
		lines[i] = e.Name + ": " + e.Value
	}
	return lines
}

// ReplaceLine rewrites the i-th header line in place, re-parsing
// "name: value" from the line text. Returns an error-like bool so callers
// in linemodel can report a RuntimeError with full context.
func (h *Headers) ReplaceLine(i int, line string) bool {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return false
	}
	name := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if name == "" {
		return false
	}
	h.entries[i] = HeaderEntry{Name: name, Value: value}
	return true
}

// Clone returns a deep copy so mutation during the Send phase never
// touches the original captured pair.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return NewHeaders()
	}
	return HeadersFrom(h.entries)
}
