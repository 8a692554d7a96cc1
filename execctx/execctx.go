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

// Package execctx is the C4 execution context: the per-(rule,pair)
// scratch space every phase of the executor reads from and writes into.
// One Context belongs to exactly one worker task for exactly one scan;
// nothing here is safe to share across goroutines.
package execctx

import (
	"github.com/redwire/redwire/constants"
	"github.com/redwire/redwire/expr"
	"github.com/redwire/redwire/linemodel"
	"github.com/redwire/redwire/pair"
	"github.com/redwire/redwire/xerr"
)

// SendEntry is one replay attempt's recorded outcome: the request that
// was actually sent, the payload labels that produced it, and either a
// response or the error the attempt failed with.
type SendEntry struct {
	Request  *pair.Request
	Payloads []string
	Response *pair.Response
	Err      error
}

// Context holds every phase's results for one (rule, pair) scan.
type Context struct {
	RuleID    string
	PairIndex int
	Initial   *pair.Pair

	WatchResults []map[string][]linemodel.Coordinate
	// ChangeResults holds, per Change, the coordinates pulled from its
	// referenced Watch's capture group. A nil/empty slice is "None".
	ChangeResults           [][]linemodel.Coordinate
	WatchSucceededForChange bool

	// SendResults is ordinal-indexed exactly like expr.Reference: index 0
	// is the seeded initial pair, index k (1-based) is the k-th compiled
	// Send's entries.
	SendResults [][]SendEntry

	FindResults []expr.FinalResult
	GetResults  map[int][][]byte
}

// New builds a Context with SendResults pre-seeded at ordinal 0.
func New(ruleID string, pairIdx int, initial *pair.Pair, numWatches, numChanges, numSends, numFinds int) *Context {
	sr := make([][]SendEntry, numSends+1)
	sr[0] = []SendEntry{{
		Request:  initial.Request,
		Payloads: []string{constants.InitialPayloadMarker},
		Response: initial.Response,
	}}
	return &Context{
		RuleID:       ruleID,
		PairIndex:    pairIdx,
		Initial:      initial,
		WatchResults: make([]map[string][]linemodel.Coordinate, numWatches),
		ChangeResults: make([][]linemodel.Coordinate, numChanges),
		SendResults:  sr,
		FindResults:  make([]expr.FinalResult, numFinds),
		GetResults:   make(map[int][][]byte),
	}
}

// SetSendResults records the entries produced by the sendIdx-th compiled
// Send (0-based, the convention used everywhere outside package expr).
func (c *Context) SetSendResults(sendIdx int, entries []SendEntry) {
	c.SendResults[sendIdx+1] = entries
}

// SendEntries returns the sendIdx-th compiled Send's recorded entries.
func (c *Context) SendEntries(sendIdx int) []SendEntry {
	return c.SendResults[sendIdx+1]
}

// FieldCount implements expr.Dereferencer.
func (c *Context) FieldCount(ordinal int) (int, error) {
	if ordinal < 0 || ordinal >= len(c.SendResults) {
		return 0, xerr.ErrRuntime(xerr.Locator{RuleID: c.RuleID, PairIndex: c.PairIndex}, "send ordinal %d out of range", ordinal)
	}
	return len(c.SendResults[ordinal]), nil
}

// Field implements expr.Dereferencer. A Find referencing a response field
// on a send entry with no recorded response (Response == nil) is itself a
// RuntimeError - the engine never evaluates against fabricated empty data.
func (c *Context) Field(ordinal, index int, side, part, headerName string) (expr.Value, error) {
	if ordinal < 0 || ordinal >= len(c.SendResults) {
		return expr.Value{}, xerr.ErrRuntime(xerr.Locator{RuleID: c.RuleID, PairIndex: c.PairIndex}, "send ordinal %d out of range", ordinal)
	}
	entries := c.SendResults[ordinal]
	if index < 0 || index >= len(entries) {
		return expr.Value{}, xerr.ErrRuntime(xerr.Locator{RuleID: c.RuleID, PairIndex: c.PairIndex}, "send entry index %d out of range", index)
	}
	e := entries[index]

	if side == "request" {
		req := e.Request
		switch part {
		case "method":
			return expr.Value{Kind: expr.VString, Str: req.Method}, nil
		case "path":
			return expr.Value{Kind: expr.VString, Str: req.GetRequestPath()}, nil
		case "version":
			return expr.Value{Kind: expr.VString, Str: req.Version}, nil
		case "body":
			return expr.Value{Kind: expr.VString, Str: string(req.Body)}, nil
		case "headers":
			v, _ := req.Headers.Get(headerName)
			return expr.Value{Kind: expr.VString, Str: v}, nil
		}
	}

	resp := e.Response
	if resp == nil {
		return expr.Value{}, xerr.ErrRuntime(xerr.Locator{RuleID: c.RuleID, PairIndex: c.PairIndex}, "send entry %d.%d has no response", ordinal, index)
	}
	switch part {
	case "status":
		return expr.Value{Kind: expr.VInt, Int: int64(resp.Status)}, nil
	case "version":
		return expr.Value{Kind: expr.VString, Str: resp.Version}, nil
	case "body":
		return expr.Value{Kind: expr.VString, Str: string(resp.Body)}, nil
	case "headers":
		if resp.Headers == nil {
			return expr.Value{Kind: expr.VString}, nil
		}
		v, _ := resp.Headers.Get(headerName)
		return expr.Value{Kind: expr.VString, Str: v}, nil
	}
	return expr.Value{}, xerr.ErrContract(xerr.Locator{RuleID: c.RuleID}, "field %s.%s reached execution unresolved", side, part)
}
