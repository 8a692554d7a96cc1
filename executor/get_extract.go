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

package executor

import (
	"fmt"

	"github.com/redwire/redwire/action"
	"github.com/redwire/redwire/execctx"
)

// extractOne applies one Get's pattern to one send-entry's request or
// response, scanning first-line, then headers, then body (in that
// order) and returning the first capture found - a whole line, a whole
// match, or one named group's bytes, per the Get's extract mode.
func extractOne(g *action.CompiledGet, entry execctx.SendEntry) []byte {
	var texts []string
	if g.Extract.Side == "request" {
		req := entry.Request
		if req == nil {
			return nil
		}
		texts = append(texts, req.Method+" "+req.URI+" "+req.Version)
		texts = append(texts, req.Headers.Lines()...)
		texts = append(texts, string(req.Body))
	} else {
		resp := entry.Response
		if resp == nil {
			return nil
		}
		texts = append(texts, fmt.Sprintf("%s %d", resp.Version, resp.Status))
		texts = append(texts, resp.Headers.Lines()...)
		texts = append(texts, string(resp.Body))
	}

	for _, t := range texts {
		m := g.Pattern.FindStringSubmatchIndex(t)
		if m == nil {
			continue
		}
		switch g.Extract.Mode.Kind {
		case "line":
			return []byte(t)
		case "match":
			return []byte(t[m[0]:m[1]])
		case "group":
			names := g.Pattern.SubexpNames()
			for gi, name := range names {
				if name == g.Extract.Mode.Group {
					if gi*2 >= len(m) || m[gi*2] < 0 {
						return nil
					}
					return []byte(t[m[gi*2]:m[gi*2+1]])
				}
			}
			return nil
		}
	}
	return nil
}
