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

// Package findings renders a RuleResult into the engine's external
// JSON-lines interface and appends it to a findings file.
package findings

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/redwire/redwire/execctx"
	"github.com/redwire/redwire/executor"
	"github.com/redwire/redwire/pair"
)

// WireHeader is one header as it appears in a findings record.
type WireHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// WireRequest is a request's wire-facing JSON shape.
type WireRequest struct {
	Method  string       `json:"method"`
	URI     string       `json:"uri"`
	Version string       `json:"version"`
	Headers []WireHeader `json:"headers"`
	Body    string       `json:"body"`
}

// WireResponse is a response's wire-facing JSON shape.
type WireResponse struct {
	Status  int          `json:"status"`
	Version string       `json:"version"`
	Headers []WireHeader `json:"headers"`
	Body    string       `json:"body"`
}

// WireSendEntry is one replayed send attempt as it appears in a finding.
type WireSendEntry struct {
	Request  *WireRequest  `json:"request"`
	Payload  []string      `json:"payload"`
	Response *WireResponse `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// WireFinding is one Find's contribution to a Record.
type WireFinding struct {
	Extracted   []string        `json:"extracted"`
	SendResults []WireSendEntry `json:"send_results,omitempty"`
}

// Record is one JSON-lines object in the findings output.
type Record struct {
	ID              string                 `json:"id"`
	RuleID          string                 `json:"rule_id"`
	RuleFingerprint uint64                 `json:"rule_fingerprint"`
	About           string                 `json:"about"`
	Protocol        string                 `json:"protocol"`
	Type            string                 `json:"type"`
	PairIndex       int                    `json:"pair_index"`
	Severity        string                 `json:"severity"`
	Findings        map[string]WireFinding `json:"findings"`
	InitialRequest  *WireRequest           `json:"initial_request"`
	InitialResponse *WireResponse          `json:"initial_response,omitempty"`
}

func wireHeaders(h *pair.Headers) []WireHeader {
	if h == nil {
		return nil
	}
	out := make([]WireHeader, h.Len())
	for i := 0; i < h.Len(); i++ {
		e := h.At(i)
		out[i] = WireHeader{Name: e.Name, Value: e.Value}
	}
	return out
}

func wireRequest(r *pair.Request) *WireRequest {
	if r == nil {
		return nil
	}
	return &WireRequest{Method: r.Method, URI: r.URI, Version: r.Version, Headers: wireHeaders(r.Headers), Body: string(r.Body)}
}

func wireResponse(r *pair.Response) *WireResponse {
	if r == nil {
		return nil
	}
	return &WireResponse{Status: r.Status, Version: r.Version, Headers: wireHeaders(r.Headers), Body: string(r.Body)}
}

func wireSendEntries(entries []execctx.SendEntry) []WireSendEntry {
	out := make([]WireSendEntry, len(entries))
	for i, e := range entries {
		w := WireSendEntry{Request: wireRequest(e.Request), Payload: e.Payloads, Response: wireResponse(e.Response)}
		if e.Err != nil {
			w.Error = e.Err.Error()
		}
		out[i] = w
	}
	return out
}

// BuildRecord renders one RuleResult into its external wire shape.
// Returns nil for a RuleResult that produced no findings - Skipped and
// no-match Finished results never reach the output file.
func BuildRecord(fingerprint uint64, about string, result *executor.RuleResult) *Record {
	if len(result.Findings) == 0 {
		return nil
	}
	rec := &Record{
		ID:              uuid.NewString(),
		RuleID:          result.RuleID,
		RuleFingerprint: fingerprint,
		About:           about,
		Protocol:        result.Protocol,
		Type:            string(result.Type),
		PairIndex:       result.PairIndex,
		Severity:        string(result.Severity),
		Findings:        make(map[string]WireFinding, len(result.Findings)),
	}
	if result.Initial != nil {
		rec.InitialRequest = wireRequest(result.Initial.Request)
		rec.InitialResponse = wireResponse(result.Initial.Response)
	}
	for _, f := range result.Findings {
		if !f.Matched {
			continue
		}
		extracted := make([]string, len(f.Extracted))
		for i, b := range f.Extracted {
			extracted[i] = string(b)
		}
		var sendResults []WireSendEntry
		for _, entries := range f.SendEntries {
			sendResults = append(sendResults, wireSendEntries(entries)...)
		}
		rec.Findings[f.FindID] = WireFinding{Extracted: extracted, SendResults: sendResults}
	}
	return rec
}

// Marshal renders rec as one compact JSON line, without a trailing
// newline - callers append their own via the writer.
func Marshal(rec *Record) ([]byte, error) {
	return json.Marshal(rec)
}
