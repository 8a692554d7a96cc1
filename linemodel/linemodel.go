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

// Package linemodel is the canonical, byte-accurate line view of a
// captured request that Watch scans and Change mutates: line 0 is the
// request-line, lines 1..H are headers (one per entry), and the
// remaining lines are the body split on "\n". Every Coordinate a Watch
// produces is expressed in this model, so a later Change never has to
// re-derive it.
package linemodel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/redwire/redwire/pair"
	"github.com/redwire/redwire/rule"
)

// Coordinate is a byte range on one line of the canonical model.
type Coordinate struct {
	Line  int
	Start int
	End   int
}

// HeaderCount reports how many lines the canonical model reserves for
// headers - needed to translate a body line index back to its offset
// within Body.
func HeaderCount(req *pair.Request) int {
	if req.Headers == nil {
		return 0
	}
	return req.Headers.Len()
}

// requestLine renders line 0: "METHOD URI VERSION".
func requestLine(req *pair.Request) string {
	return req.Method + " " + req.URI + " " + req.Version
}

// bodyLines splits Body on "\n", matching the model's body segmentation.
func bodyLines(req *pair.Request) []string {
	return strings.Split(string(req.Body), "\n")
}

// partOffset returns the text Watch scans for part, plus the line index
// and column offset a match within that text must be shifted by to land
// in canonical coordinates. Headers and Body are not handled here (ok is
// false); ScanPart iterates them per-line itself.
func partOffset(req *pair.Request, part rule.WatchPart) (text string, line, offset int, ok bool) {
	switch part {
	case rule.PartMethod:
		return req.Method, 0, 0, true
	case rule.PartPath:
		return req.URI, 0, len(req.Method) + 1, true
	case rule.PartVersion:
		return req.Version, 0, len(req.Method)+1+len(req.URI)+1, true
	default:
		return "", 0, 0, false
	}
}

// ScanPart runs re against the structural part named by part and returns
// every capture group's coordinates, keyed by group name, or by decimal
// group index ("0" for the whole match) when the group is unnamed.
// Results from multiple matches (multiple header lines, multiple body
// lines, or repeated matches within one line) are appended under the
// same key, in scan order.
func ScanPart(req *pair.Request, part rule.WatchPart, re *regexp.Regexp) map[string][]Coordinate {
	out := make(map[string][]Coordinate)
	names := re.SubexpNames()

	scanLine := func(text string, line, colOffset int) {
		for _, m := range re.FindAllSubmatchIndex([]byte(text), -1) {
			for g := 0; g*2 < len(m); g++ {
				if m[g*2] < 0 {
					continue
				}
				key := names[g]
				if key == "" {
					key = strconv.Itoa(g)
				}
				out[key] = append(out[key], Coordinate{
					Line:  line,
					Start: colOffset + m[g*2],
					End:   colOffset + m[g*2+1],
				})
			}
		}
	}

	switch part {
	case rule.PartMethod, rule.PartPath, rule.PartVersion:
		text, line, offset, _ := partOffset(req, part)
		scanLine(text, line, offset)
	case rule.PartHeaders:
		for i, l := range req.Headers.Lines() {
			scanLine(l, i+1, 0)
		}
	case rule.PartBody:
		h := HeaderCount(req)
		for i, l := range bodyLines(req) {
			scanLine(l, h+1+i, 0)
		}
	}
	return out
}

// Splice applies one placement at a coordinate against line text.
func Splice(line string, c Coordinate, placement rule.Placement, payload string) (string, error) {
	if c.Start < 0 || c.End > len(line) || c.Start > c.End {
		return "", fmt.Errorf("coordinate [%d,%d) out of range for line of length %d", c.Start, c.End, len(line))
	}
	switch placement {
	case rule.PlacementBefore:
		return line[:c.Start] + payload + line[c.Start:], nil
	case rule.PlacementAfter:
		return line[:c.End] + payload + line[c.End:], nil
	case rule.PlacementReplace:
		return line[:c.Start] + payload + line[c.End:], nil
	default:
		return "", fmt.Errorf("unknown placement %q", placement)
	}
}

// ApplyModify returns a new Request with the line addressed by c spliced
// with payload at placement, and reassembled back into a structured
// request. The input request is never mutated.
func ApplyModify(req *pair.Request, c Coordinate, placement rule.Placement, payload string) (*pair.Request, error) {
	out := req.Clone()
	h := HeaderCount(req)

	switch {
	case c.Line == 0:
		newLine, err := Splice(requestLine(req), c, placement, payload)
		if err != nil {
			return nil, err
		}
		parts := strings.SplitN(newLine, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("mutated request-line %q no longer parses as METHOD URI VERSION", newLine)
		}
		out.Method, out.URI, out.Version = parts[0], parts[1], parts[2]

	case c.Line >= 1 && c.Line <= h:
		idx := c.Line - 1
		lines := req.Headers.Lines()
		if idx >= len(lines) {
			return nil, fmt.Errorf("header line %d out of range (%d headers)", idx, len(lines))
		}
		newLine, err := Splice(lines[idx], c, placement, payload)
		if err != nil {
			return nil, err
		}
		out.Headers = req.Headers.Clone()
		if !out.Headers.ReplaceLine(idx, newLine) {
			return nil, fmt.Errorf("mutated header line %q no longer parses as \"name: value\"", newLine)
		}

	default:
		idx := c.Line - h - 1
		lines := bodyLines(req)
		if idx < 0 || idx >= len(lines) {
			return nil, fmt.Errorf("body line %d out of range (%d lines)", idx, len(lines))
		}
		newLine, err := Splice(lines[idx], c, placement, payload)
		if err != nil {
			return nil, err
		}
		lines[idx] = newLine
		out.Body = []byte(strings.Join(lines, "\n"))
	}
	return out, nil
}

// AppendHeader returns a copy of req with name: value appended as a new
// header line.
func AppendHeader(req *pair.Request, name, value string) *pair.Request {
	out := req.Clone()
	out.Headers = req.Headers.Clone()
	out.Headers.Add(name, value)
	return out
}

// FixContentLength rewrites (or adds) the Content-Length header to match
// the request's current body, the one structural invariant the engine
// repairs automatically after mutation so a replay isn't rejected by the
// target purely on a stale length.
func FixContentLength(req *pair.Request) {
	if _, had := req.Headers.Get("Content-Length"); !had && len(req.Body) == 0 {
		return
	}
	req.Headers.Set("Content-Length", strconv.Itoa(len(req.Body)))
}
