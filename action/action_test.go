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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redwire/redwire/rule"
)

func TestBuildLookup_ByIDAndIndex(t *testing.T) {
	l := BuildLookup(3, func(i int) string {
		if i == 1 {
			return "named"
		}
		return ""
	})
	idx, ok := l.Resolve("0")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = l.Resolve("named")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = l.Resolve("missing")
	assert.False(t, ok)
}

func TestCheckUpWatch_Valid(t *testing.T) {
	cw, err := CheckUpWatch(rule.Watch{Part: "headers", Pattern: `^Host: (?P<h>.+)$`}, 0, nil, "r1")
	require.NoError(t, err)
	assert.Equal(t, rule.PartHeaders, cw.Part)
	assert.NotNil(t, cw.Regex)
}

func TestCheckUpWatch_UnknownPart(t *testing.T) {
	_, err := CheckUpWatch(rule.Watch{Part: "cookies", Pattern: `.*`}, 0, nil, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown watch part")
}

func TestCheckUpWatch_InvalidPattern(t *testing.T) {
	_, err := CheckUpWatch(rule.Watch{Part: "body", Pattern: `(`}, 0, nil, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestCheckUpChange_Modify(t *testing.T) {
	watches := BuildLookup(1, func(int) string { return "" })
	c := rule.Change{
		WatchID: "0.h",
		Type: rule.ChangeType{
			Kind:   "modify",
			Modify: &rule.ModifyChange{Placement: "Replace", Payloads: []string{"X"}},
		},
	}
	cc, err := CheckUpChange(c, 0, watches, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, cc.WatchIndex)
	assert.Equal(t, "h", cc.Group)
	assert.Equal(t, rule.PlacementReplace, cc.Placement)
	assert.Equal(t, []string{"X"}, cc.Payloads)
}

func TestCheckUpChange_Modify_NoGroupDefaultsToZero(t *testing.T) {
	watches := BuildLookup(1, func(int) string { return "" })
	c := rule.Change{
		WatchID: "0",
		Type: rule.ChangeType{
			Kind:   "modify",
			Modify: &rule.ModifyChange{Placement: "before", Payloads: []string{"X"}},
		},
	}
	cc, err := CheckUpChange(c, 0, watches, "r1")
	require.NoError(t, err)
	assert.Equal(t, "0", cc.Group)
}

func TestCheckUpChange_Modify_EmptyPayloads(t *testing.T) {
	watches := BuildLookup(1, func(int) string { return "" })
	c := rule.Change{
		WatchID: "0",
		Type:    rule.ChangeType{Kind: "modify", Modify: &rule.ModifyChange{Placement: "before"}},
	}
	_, err := CheckUpChange(c, 0, watches, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payloads")
}

func TestCheckUpChange_UnresolvedWatch(t *testing.T) {
	watches := BuildLookup(1, func(int) string { return "" })
	c := rule.Change{WatchID: "missing", Type: rule.ChangeType{Kind: "modify", Modify: &rule.ModifyChange{Placement: "before", Payloads: []string{"X"}}}}
	_, err := CheckUpChange(c, 0, watches, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot find watch action")
}

func TestCheckUpChange_Add(t *testing.T) {
	watches := BuildLookup(1, func(int) string { return "" })
	c := rule.Change{
		WatchID: "0",
		Type:    rule.ChangeType{Kind: "add", Add: &rule.AddChange{Header: rule.HeaderPair{Name: "X-Injected", Value: "1"}}},
	}
	cc, err := CheckUpChange(c, 0, watches, "r1")
	require.NoError(t, err)
	assert.Equal(t, "X-Injected", cc.Header.Name)
}

func TestCheckUpSend_Defaults(t *testing.T) {
	changes := BuildLookup(1, func(int) string { return "" })
	cs, err := CheckUpSend(rule.Send{Apply: "0"}, 0, changes, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, cs.ChangeIndex)
	assert.Equal(t, 0, cs.Repeat)
}

func TestCheckUpSend_NegativeRepeatRejected(t *testing.T) {
	changes := BuildLookup(1, func(int) string { return "" })
	neg := -1
	_, err := CheckUpSend(rule.Send{Apply: "0", Repeat: &neg}, 0, changes, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeat must be >= 0")
}

func TestCheckUpFind_OffsetsSendOrdinalsBackToIndices(t *testing.T) {
	sends := BuildLookup(1, func(int) string { return "probe" })
	f := rule.Find{Exec: []rule.Expr{
		{Operation: "rematch", Args: []rule.ExprArg{
			{Type: "string", Value: "X"},
			{Type: "reference", Value: "probe.response.body"},
		}},
	}}
	cf, err := CheckUpFind(f, 0, sends, "r1")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, cf.SendDeps)
}

func TestCheckUpGet_Valid(t *testing.T) {
	sends := BuildLookup(1, func(int) string { return "" })
	finds := BuildLookup(1, func(int) string { return "" })
	g := rule.Get{
		From:      "0",
		IfSucceed: "0",
		Extract:   rule.ExtractPart{Side: "response", Mode: rule.ExtractMode{Kind: "group", Group: "token"}},
		Pattern:   `token=(?P<token>\w+)`,
	}
	cg, err := CheckUpGet(g, 0, sends, finds, nil, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, cg.SendIndex)
	assert.Equal(t, 0, cg.FindIndex)
	assert.NotNil(t, cg.Pattern)
}

func TestCheckUpGet_BadSide(t *testing.T) {
	sends := BuildLookup(1, func(int) string { return "" })
	finds := BuildLookup(1, func(int) string { return "" })
	g := rule.Get{From: "0", IfSucceed: "0", Extract: rule.ExtractPart{Side: "both"}, Pattern: `.*`}
	_, err := CheckUpGet(g, 0, sends, finds, nil, "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract side must be")
}
