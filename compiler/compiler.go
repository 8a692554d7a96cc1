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

// Package compiler is the C3 rule compiler: it runs the C2 action
// compilers in watch -> change -> send -> find -> get order, rebuilding
// the name->index lookup after each phase, then validates the resulting
// binding graph is acyclic before a rule is allowed to run.
package compiler

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/redwire/redwire/action"
	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/dag"
	"github.com/redwire/redwire/rule"
	"github.com/redwire/redwire/xerr"
)

var allowedProtocols = map[string]bool{"http": true}

// CompiledRule is a Document after every phase's check_up has run: every
// symbolic id reference has been resolved to a numeric index, and the
// watch->change->send->find->get binding graph has been validated as a
// DAG.
type CompiledRule struct {
	ID          string
	Metadata    rule.Metadata
	Type        rule.Type
	Protocol    string
	Severity    rule.Severity
	Fingerprint uint64

	Watches []*action.CompiledWatch
	Changes []*action.CompiledChange
	Sends   []*action.CompiledSend
	Finds   []*action.CompiledFind
	Gets    []*action.CompiledGet
}

// Compile runs the full C3 pipeline against doc.
func Compile(doc *rule.Document, regexes *cache.RegexCache) (*CompiledRule, error) {
	loc := xerr.Locator{RuleID: doc.ID}

	typ := rule.Type(strings.ToLower(strings.TrimSpace(doc.Type)))
	if typ != rule.TypeActive && typ != rule.TypePassive {
		loc.Field = "type"
		return nil, xerr.ErrCompile(loc, "type must be active or passive, got %q", doc.Type)
	}

	protocol := strings.ToLower(strings.TrimSpace(doc.Protocol))
	if !allowedProtocols[protocol] {
		loc.Field = "protocol"
		return nil, xerr.ErrCompile(loc, "unknown protocol %q", doc.Protocol)
	}

	severity := rule.Severity(strings.ToLower(strings.TrimSpace(doc.Severity)))
	if !severity.Valid() {
		loc.Field = "severity"
		return nil, xerr.ErrCompile(loc, "unknown severity %q", doc.Severity)
	}

	if typ == rule.TypeActive {
		if len(doc.Rule.Watch) == 0 {
			return nil, xerr.ErrCompile(xerr.Locator{RuleID: doc.ID, Field: "rule.watch"}, "active rules require at least one watch action")
		}
		if len(doc.Rule.Change) == 0 {
			return nil, xerr.ErrCompile(xerr.Locator{RuleID: doc.ID, Field: "rule.change"}, "active rules require at least one change action")
		}
		if len(doc.Rule.Send) == 0 {
			return nil, xerr.ErrCompile(xerr.Locator{RuleID: doc.ID, Field: "rule.send"}, "active rules require at least one send action")
		}
	}
	if len(doc.Rule.Find) == 0 {
		return nil, xerr.ErrCompile(xerr.Locator{RuleID: doc.ID, Field: "rule.find"}, "every rule requires at least one find action")
	}

	fingerprint, err := hashstructure.Hash(doc.Rule, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, xerr.ErrCompile(xerr.Locator{RuleID: doc.ID}, "computing content fingerprint: %v", err)
	}

	cr := &CompiledRule{
		ID:          doc.ID,
		Metadata:    doc.Metadata,
		Type:        typ,
		Protocol:    protocol,
		Severity:    severity,
		Fingerprint: fingerprint,
	}

	// watch
	watchLookup := action.BuildLookup(len(doc.Rule.Watch), func(i int) string { return doc.Rule.Watch[i].ID })
	for i, w := range doc.Rule.Watch {
		cw, err := action.CheckUpWatch(w, i, regexes, doc.ID)
		if err != nil {
			return nil, err
		}
		cr.Watches = append(cr.Watches, cw)
	}

	// change
	changeLookup := action.BuildLookup(len(doc.Rule.Change), func(i int) string { return doc.Rule.Change[i].ID })
	for i, c := range doc.Rule.Change {
		cc, err := action.CheckUpChange(c, i, watchLookup, doc.ID)
		if err != nil {
			return nil, err
		}
		cr.Changes = append(cr.Changes, cc)
	}

	// send
	sendLookup := action.BuildLookup(len(doc.Rule.Send), func(i int) string { return doc.Rule.Send[i].ID })
	for i, s := range doc.Rule.Send {
		cs, err := action.CheckUpSend(s, i, changeLookup, doc.ID)
		if err != nil {
			return nil, err
		}
		cr.Sends = append(cr.Sends, cs)
	}

	// find
	findLookup := action.BuildLookup(len(doc.Rule.Find), func(i int) string { return doc.Rule.Find[i].ID })
	for i, f := range doc.Rule.Find {
		cf, err := action.CheckUpFind(f, i, sendLookup, doc.ID)
		if err != nil {
			return nil, err
		}
		for _, dep := range cf.SendDeps {
			if dep < 0 || dep >= len(cr.Sends) {
				return nil, xerr.ErrCompile(xerr.Locator{RuleID: doc.ID, ActionKind: "find", ActionIdx: i},
					"references send index %d out of range", dep)
			}
		}
		cr.Finds = append(cr.Finds, cf)
	}

	// get
	for i, g := range doc.Rule.Get {
		cg, err := action.CheckUpGet(g, i, sendLookup, findLookup, regexes, doc.ID)
		if err != nil {
			return nil, err
		}
		cr.Gets = append(cr.Gets, cg)
	}

	if err := validateGraph(cr); err != nil {
		return nil, err
	}
	return cr, nil
}

type node string

func (n node) String() string { return string(n) }

// validateGraph rebuilds the watch->change->send->find->get binding
// graph as a dag.G and topologically sorts it, surfacing any cycle as a
// CompileError. Every edge here already points from a later phase back
// to an earlier one, so in practice this also catches any compiler bug
// that let a forward-looking edge slip through the per-phase lookups.
func validateGraph(cr *CompiledRule) error {
	g := dag.New[node]()
	for i := range cr.Watches {
		g.AddNode(node(fmt.Sprintf("watch:%d", i)))
	}
	for i := range cr.Changes {
		g.AddNode(node(fmt.Sprintf("change:%d", i)))
	}
	for i := range cr.Sends {
		g.AddNode(node(fmt.Sprintf("send:%d", i)))
	}
	for i := range cr.Finds {
		g.AddNode(node(fmt.Sprintf("find:%d", i)))
	}
	for i := range cr.Gets {
		g.AddNode(node(fmt.Sprintf("get:%d", i)))
	}

	for i, c := range cr.Changes {
		if err := g.AddEdge(node(fmt.Sprintf("change:%d", i)), node(fmt.Sprintf("watch:%d", c.WatchIndex))); err != nil {
			return xerr.ErrCompile(xerr.Locator{RuleID: cr.ID, ActionKind: "change", ActionIdx: i}, "binding graph: %v", err)
		}
	}
	for i, s := range cr.Sends {
		if err := g.AddEdge(node(fmt.Sprintf("send:%d", i)), node(fmt.Sprintf("change:%d", s.ChangeIndex))); err != nil {
			return xerr.ErrCompile(xerr.Locator{RuleID: cr.ID, ActionKind: "send", ActionIdx: i}, "binding graph: %v", err)
		}
	}
	for i, f := range cr.Finds {
		for _, dep := range f.SendDeps {
			if err := g.AddEdge(node(fmt.Sprintf("find:%d", i)), node(fmt.Sprintf("send:%d", dep))); err != nil {
				return xerr.ErrCompile(xerr.Locator{RuleID: cr.ID, ActionKind: "find", ActionIdx: i}, "binding graph: %v", err)
			}
		}
	}
	for i, get := range cr.Gets {
		if err := g.AddEdge(node(fmt.Sprintf("get:%d", i)), node(fmt.Sprintf("send:%d", get.SendIndex))); err != nil {
			return xerr.ErrCompile(xerr.Locator{RuleID: cr.ID, ActionKind: "get", ActionIdx: i}, "binding graph: %v", err)
		}
		if err := g.AddEdge(node(fmt.Sprintf("get:%d", i)), node(fmt.Sprintf("find:%d", get.FindIndex))); err != nil {
			return xerr.ErrCompile(xerr.Locator{RuleID: cr.ID, ActionKind: "get", ActionIdx: i}, "binding graph: %v", err)
		}
	}

	if _, err := g.TopoSort(); err != nil {
		return xerr.ErrCompile(xerr.Locator{RuleID: cr.ID}, "binding graph is not acyclic: %v", err)
	}
	return nil
}
