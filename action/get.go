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
	"regexp"
	"strings"

	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/rule"
	"github.com/redwire/redwire/xerr"
)

// CompiledGet is a Get after check_up: `from`/`if_succeed` resolved to
// numeric indices and `pattern` pre-compiled. Extraction mode is parsed
// case-insensitively (lowercased before matching), resolving the
// engine's one ambiguity around ExtractionModeByPart.
type CompiledGet struct {
	ID         string
	Index      int
	SendIndex  int
	FindIndex  int
	Extract    rule.ExtractPart
	Pattern    *regexp.Regexp
}

// CheckUpGet validates and resolves one Get action against the lookups
// built from the already-compiled Send and Find lists.
func CheckUpGet(g rule.Get, index int, sends, finds Lookup, regexes *cache.RegexCache, ruleID string) (*CompiledGet, error) {
	loc := xerr.Locator{RuleID: ruleID, ActionKind: "get", ActionIdx: index, Field: "from"}
	sendIdx, ok := sends.Resolve(g.From)
	if !ok {
		return nil, xerr.ErrUnresolvedSend(loc, g.From)
	}

	loc.Field = "if_succeed"
	findIdx, ok := finds.Resolve(g.IfSucceed)
	if !ok {
		return nil, xerr.ErrUnresolvedFind(loc, g.IfSucceed)
	}

	loc.Field = "extract"
	if g.Extract.Side != "request" && g.Extract.Side != "response" {
		return nil, xerr.ErrCompile(loc, "extract side must be request or response, got %q", g.Extract.Side)
	}
	switch strings.ToLower(g.Extract.Mode.Kind) {
	case "line", "match", "group":
	default:
		return nil, xerr.ErrCompile(loc, "unknown extract mode %q", g.Extract.Mode.Kind)
	}

	loc.Field = "pattern"
	re, err := compilePattern(g.Pattern, regexes)
	if err != nil {
		return nil, xerr.ErrCompile(loc, "invalid pattern %q: %v", g.Pattern, err)
	}

	return &CompiledGet{
		ID:        g.ID,
		Index:     index,
		SendIndex: sendIdx,
		FindIndex: findIdx,
		Extract:   g.Extract,
		Pattern:   re,
	}, nil
}
