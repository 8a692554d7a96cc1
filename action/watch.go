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

// CompiledWatch is a Watch after check_up: its structural part validated
// and its pattern pre-compiled, so a regex mistake fails rule loading
// rather than the first pair scanned.
type CompiledWatch struct {
	ID    string
	Index int
	Part  rule.WatchPart
	Regex *regexp.Regexp
}

func partFromString(s string) (rule.WatchPart, bool) {
	switch rule.WatchPart(strings.ToLower(strings.TrimSpace(s))) {
	case rule.PartMethod:
		return rule.PartMethod, true
	case rule.PartPath:
		return rule.PartPath, true
	case rule.PartVersion:
		return rule.PartVersion, true
	case rule.PartHeaders:
		return rule.PartHeaders, true
	case rule.PartBody:
		return rule.PartBody, true
	default:
		return "", false
	}
}

// CheckUpWatch validates and compiles one Watch action.
func CheckUpWatch(w rule.Watch, index int, regexes *cache.RegexCache, ruleID string) (*CompiledWatch, error) {
	loc := xerr.Locator{RuleID: ruleID, ActionKind: "watch", ActionIdx: index, Field: "part"}
	part, ok := partFromString(w.Part)
	if !ok {
		return nil, xerr.ErrCompile(loc, "unknown watch part %q", w.Part)
	}
	re, err := compilePattern(w.Pattern, regexes)
	if err != nil {
		loc.Field = "pattern"
		return nil, xerr.ErrCompile(loc, "invalid pattern %q: %v", w.Pattern, err)
	}
	return &CompiledWatch{ID: w.ID, Index: index, Part: part, Regex: re}, nil
}

func compilePattern(pattern string, regexes *cache.RegexCache) (*regexp.Regexp, error) {
	if regexes != nil {
		return regexes.Compile(pattern)
	}
	return regexp.Compile(pattern)
}
