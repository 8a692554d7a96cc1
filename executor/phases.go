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

// Package executor is the C5 rule executor: the watch -> change -> send
// -> find -> get state machine for one (rule, pair) scan, and the
// bounded worker pool that runs many such scans concurrently.
package executor

import (
	"context"
	"strconv"
	"time"

	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/compiler"
	"github.com/redwire/redwire/execctx"
	"github.com/redwire/redwire/expr"
	"github.com/redwire/redwire/httpclient"
	"github.com/redwire/redwire/linemodel"
	"github.com/redwire/redwire/otelx"
	"github.com/redwire/redwire/pair"
	"github.com/redwire/redwire/rule"
	"github.com/redwire/redwire/xerr"
)

// State is the terminal outcome of one (rule, pair) scan.
type State int

const (
	StateSkipped State = iota
	StateFinished
	StateFailed
)

// Finding is one Find's contribution to a RuleResult: its user-facing
// id, whatever Get extracted under it, and (for active rules) the
// send-entries it depended on.
type Finding struct {
	FindID      string
	Matched     bool
	Extracted   [][]byte
	SendEntries map[int][]execctx.SendEntry // keyed by compiled Send index
}

// RuleResult is the finalized outcome of one (rule, pair) scan.
type RuleResult struct {
	RuleID    string
	Severity  rule.Severity
	Type      rule.Type
	Protocol  string
	PairIndex int
	State     State
	Reason    string
	Findings  []Finding
	Initial   *pair.Pair
}

// Scan runs the full state machine for cr against p, allocating a fresh
// Context. Use ScanPooled to reuse Contexts across scans of the same rule.
func Scan(ctx context.Context, cr *compiler.CompiledRule, p *pair.Pair, sender httpclient.Sender, regexes *cache.RegexCache) (*RuleResult, error) {
	ec := execctx.New(cr.ID, p.Index, p, len(cr.Watches), len(cr.Changes), len(cr.Sends), len(cr.Finds))
	return scan(ctx, cr, p, sender, regexes, ec)
}

// ScanPooled runs the full state machine for cr against p using a Context
// acquired from pool, releasing it back when the scan completes.
func ScanPooled(ctx context.Context, cr *compiler.CompiledRule, p *pair.Pair, sender httpclient.Sender, regexes *cache.RegexCache, pool *execctx.Pool) (*RuleResult, error) {
	ec, release, err := pool.Acquire(ctx, p)
	if err != nil {
		return nil, err
	}
	defer release()
	return scan(ctx, cr, p, sender, regexes, ec)
}

func scan(ctx context.Context, cr *compiler.CompiledRule, p *pair.Pair, sender httpclient.Sender, regexes *cache.RegexCache, ec *execctx.Context) (*RuleResult, error) {
	ctx, span := otelx.StartScan(ctx, cr.ID, p.Index)
	defer span.End()

	result := &RuleResult{RuleID: cr.ID, Severity: cr.Severity, Type: cr.Type, Protocol: cr.Protocol, PairIndex: p.Index, Initial: p}

	if cr.Type == rule.TypeActive {
		runWatchPhase(cr, p, ec)
		if skip := runChangePhase(cr, ec); skip != "" {
			result.State = StateSkipped
			result.Reason = skip
			return result, nil
		}
		if err := runSendPhase(ctx, cr, ec, sender); err != nil {
			result.State = StateFailed
			result.Reason = err.Error()
			return result, nil
		}
	}

	if err := runFindPhase(cr, ec, regexes); err != nil {
		result.State = StateFailed
		result.Reason = err.Error()
		return result, nil
	}

	anyTrue := false
	for _, fr := range ec.FindResults {
		if fr.Bool {
			anyTrue = true
			break
		}
	}

	if err := runGetPhase(cr, ec); err != nil {
		result.State = StateFailed
		result.Reason = err.Error()
		return result, nil
	}

	result.State = StateFinished
	if !anyTrue {
		return result, nil
	}
	result.Findings = finalize(cr, ec)
	return result, nil
}

func runWatchPhase(cr *compiler.CompiledRule, p *pair.Pair, ec *execctx.Context) {
	for i, w := range cr.Watches {
		ec.WatchResults[i] = linemodel.ScanPart(p.Request, w.Part, w.Regex)
	}
}

func runChangePhase(cr *compiler.CompiledRule, ec *execctx.Context) string {
	any := false
	for i, c := range cr.Changes {
		if c.Kind != "modify" {
			continue
		}
		coords := ec.WatchResults[c.WatchIndex][c.Group]
		ec.ChangeResults[i] = coords
		if len(coords) > 0 {
			any = true
		}
	}
	ec.WatchSucceededForChange = any
	if !any {
		return "no patterns matched"
	}
	return ""
}

// step is one in-flight mutation of the Send phase's working list.
type step struct {
	request  *pair.Request
	payloads []string
}

func runSendPhase(ctx context.Context, cr *compiler.CompiledRule, ec *execctx.Context, sender httpclient.Sender) error {
	for i, s := range cr.Sends {
		steps := []step{{request: ec.Initial.Request, payloads: nil}}

		c := cr.Changes[s.ChangeIndex]
		switch c.Kind {
		case "modify":
			coords := ec.ChangeResults[s.ChangeIndex]
			next := make([]step, 0, len(steps)*max(1, len(coords))*max(1, len(c.Payloads)))
			for _, st := range steps {
				for _, coord := range coords {
					for _, payload := range c.Payloads {
						req, err := linemodel.ApplyModify(st.request, coord, c.Placement, payload)
						if err != nil {
							return xerr.ErrRuntime(xerr.Locator{RuleID: cr.ID, ActionKind: "send", ActionIdx: i}, "modify failed: %v", err)
						}
						next = append(next, step{request: req, payloads: append(append([]string{}, st.payloads...), payload)})
					}
				}
			}
			steps = next
		case "add":
			next := make([]step, len(steps))
			for j, st := range steps {
				next[j] = step{request: linemodel.AppendHeader(st.request, c.Header.Name, c.Header.Value), payloads: st.payloads}
			}
			steps = next
		}

		entries := make([]execctx.SendEntry, 0, len(steps)*(s.Repeat+1))
		for _, st := range steps {
			linemodel.FixContentLength(st.request)
			for attempt := 0; attempt <= s.Repeat; attempt++ {
				if attempt > 0 && s.Timeout > 0 {
					time.Sleep(s.Timeout)
				}
				sendCtx, span := otelx.StartSend(ctx, s.ID, attempt)
				resp, err := sender.Send(sendCtx, st.request)
				span.End()
				if err != nil {
					return xerr.ErrRuntime(xerr.Locator{RuleID: cr.ID, ActionKind: "send", ActionIdx: i}, "send failed: %v", err)
				}
				entries = append(entries, execctx.SendEntry{
					Request:  st.request,
					Payloads: st.payloads,
					Response: resp,
					Err:      err,
				})
			}
		}
		ec.SetSendResults(i, entries)
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func runFindPhase(cr *compiler.CompiledRule, ec *execctx.Context, regexes *cache.RegexCache) error {
	for i, f := range cr.Finds {
		_, final, err := expr.Execute(f.Program, ec, regexes)
		if err != nil {
			return xerr.ErrRuntime(xerr.Locator{RuleID: cr.ID, ActionKind: "find", ActionIdx: i}, "%v", err)
		}
		ec.FindResults[i] = final
	}
	return nil
}

func runGetPhase(cr *compiler.CompiledRule, ec *execctx.Context) error {
	for _, g := range cr.Gets {
		if !ec.FindResults[g.FindIndex].Bool {
			continue
		}
		var extracted [][]byte
		for _, entry := range ec.SendEntries(g.SendIndex) {
			if m := extractOne(g, entry); m != nil {
				extracted = append(extracted, m)
			}
		}
		if extracted == nil {
			extracted = [][]byte{}
		}
		ec.GetResults[g.FindIndex] = extracted
	}
	return nil
}

// finalize assembles the per-Find Finding list, snapshotting the
// send-entries each matched Find actually depended on.
func finalize(cr *compiler.CompiledRule, ec *execctx.Context) []Finding {
	findings := make([]Finding, 0, len(cr.Finds))
	for i, f := range cr.Finds {
		fr := ec.FindResults[i]
		finding := Finding{FindID: idOr(f.ID, i), Matched: fr.Bool}
		if extracted, ok := ec.GetResults[i]; ok {
			finding.Extracted = extracted
		}
		if fr.Bool && cr.Type == rule.TypeActive {
			finding.SendEntries = make(map[int][]execctx.SendEntry, len(f.SendDeps))
			for _, dep := range f.SendDeps {
				finding.SendEntries[dep] = ec.SendEntries(dep)
			}
		}
		findings = append(findings, finding)
	}
	return findings
}

func idOr(id string, idx int) string {
	if id != "" {
		return id
	}
	return strconv.Itoa(idx)
}
