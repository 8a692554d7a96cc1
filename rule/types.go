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

// Package rule is the declarative rule document: the raw, user-authored
// shape a YAML rule file decodes into, before compilation binds symbolic
// ids to numeric indices. Nothing in this package executes anything; see
// package action and package compiler for that.
package rule

// Severity is one of the four levels a rule may be tagged with.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Type distinguishes rules that mutate and replay (Active) from rules
// that only inspect the original pair (Passive).
type Type string

const (
	TypeActive  Type = "active"
	TypePassive Type = "passive"
)

// WatchPart names the structural part of a request a Watch inspects.
type WatchPart string

const (
	PartMethod  WatchPart = "method"
	PartPath    WatchPart = "path"
	PartVersion WatchPart = "version"
	PartHeaders WatchPart = "headers"
	PartBody    WatchPart = "body"
)

// Placement controls how a Modify change splices its payload against a
// Watch capture's coordinates.
type Placement string

const (
	PlacementBefore  Placement = "before"
	PlacementAfter   Placement = "after"
	PlacementReplace Placement = "replace"
)

// Metadata carries informational fields about a rule; none of it gates
// compilation or execution.
type Metadata struct {
	Name       string   `yaml:"name"`
	Authors    []string `yaml:"authors"`
	References []string `yaml:"references"`
	Tags       []string `yaml:"tags"`
	Version    string   `yaml:"version"`
}

// Watch is `{id?, part, pattern}`.
type Watch struct {
	ID      string `yaml:"id"`
	Part    string `yaml:"part"`
	Pattern string `yaml:"pattern"`
}

// ModifyChange is the Modify variant of a Change's `type`.
type ModifyChange struct {
	Placement string   `yaml:"placement"`
	Payloads  []string `yaml:"payloads"`
}

// AddChange is the Add variant of a Change's `type`: append a header.
type AddChange struct {
	Header HeaderPair `yaml:"header"`
}

type HeaderPair struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// ChangeType is the tagged union `type` field of a Change action. Exactly
// one of Modify/Add is set; YAML decodes it via UnmarshalYAML in yaml.go.
type ChangeType struct {
	Kind   string // "modify" | "add"
	Modify *ModifyChange
	Add    *AddChange
}

// Change is `{id?, watch_id, type}`.
type Change struct {
	ID      string `yaml:"id"`
	WatchID string `yaml:"watch_id"`
	Type    ChangeType `yaml:"type"`
}

// Send is `{id?, apply, repeat?, timeout_after?}`.
type Send struct {
	ID           string `yaml:"id"`
	Apply        string `yaml:"apply"`
	Repeat       *int   `yaml:"repeat"`
	TimeoutAfter *int   `yaml:"timeout_after"`
}

// ExprArg is one typed argument to an expression operation.
type ExprArg struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// Expr is one named operation within a Find's exec list.
type Expr struct {
	Name      string    `yaml:"name"`
	Operation string    `yaml:"operation"`
	Args      []ExprArg `yaml:"args"`
}

// Find is `{id?, exec[]}`.
type Find struct {
	ID   string `yaml:"id"`
	Exec []Expr `yaml:"exec"`
}

// ExtractMode is the `Line|Match|Group(name)` part of a Get's `extract`.
type ExtractMode struct {
	Kind  string // "line" | "match" | "group"
	Group string // set when Kind == "group"
}

// ExtractPart is the `Request|Response` direction of a Get's `extract`.
type ExtractPart struct {
	Side string // "request" | "response"
	Mode ExtractMode
}

// Get is `{id?, from, if_succeed, extract, pattern}`.
type Get struct {
	ID        string `yaml:"id"`
	From      string `yaml:"from"`
	IfSucceed string `yaml:"if_succeed"`
	Extract   ExtractPart `yaml:"extract"`
	Pattern   string `yaml:"pattern"`
}

// Actions is the `rule` action block.
type Actions struct {
	Watch  []Watch  `yaml:"watch"`
	Change []Change `yaml:"change"`
	Send   []Send   `yaml:"send"`
	Find   []Find   `yaml:"find"`
	Get    []Get    `yaml:"get"`
}

// Document is the top-level shape of one *.rule.yaml file.
type Document struct {
	ID       string   `yaml:"id"`
	Metadata Metadata `yaml:"metadata"`
	Type     string   `yaml:"type"`
	Protocol string   `yaml:"protocol"`
	Severity string   `yaml:"severity"`
	Rule     Actions  `yaml:"rule"`

	// SourcePath is set by the loader, not decoded from YAML.
	SourcePath string `yaml:"-"`
}
