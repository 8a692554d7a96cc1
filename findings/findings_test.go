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

package findings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redwire/redwire/execctx"
	"github.com/redwire/redwire/executor"
	"github.com/redwire/redwire/pair"
	"github.com/redwire/redwire/rule"
)

func sampleResult() *executor.RuleResult {
	reqH := pair.NewHeaders()
	reqH.Add("Host", "example.com")
	respH := pair.NewHeaders()
	initial := &pair.Pair{
		Index:    3,
		Request:  &pair.Request{Method: "GET", URI: "/", Version: "HTTP/1.1", Headers: reqH},
		Response: &pair.Response{Status: 200, Version: "HTTP/1.1", Headers: respH, Body: []byte("hi")},
	}
	return &executor.RuleResult{
		RuleID:    "reflect-host",
		Severity:  rule.SeverityMedium,
		Type:      rule.TypeActive,
		Protocol:  "http",
		PairIndex: 3,
		State:     executor.StateFinished,
		Initial:   initial,
		Findings: []executor.Finding{
			{
				FindID:  "0",
				Matched: true,
				SendEntries: map[int][]execctx.SendEntry{
					0: {{
						Request:  &pair.Request{Method: "GET", URI: "/", Version: "HTTP/1.1", Headers: reqH},
						Payloads: []string{"EVILX"},
						Response: &pair.Response{Status: 200, Headers: respH, Body: []byte("reflected: EVILX")},
					}},
				},
			},
		},
	}
}

func TestBuildRecord_NoFindingsReturnsNil(t *testing.T) {
	result := &executor.RuleResult{RuleID: "r", State: executor.StateSkipped}
	assert.Nil(t, BuildRecord(123, "about", result))
}

func TestBuildRecord_SkipsUnmatchedFinds(t *testing.T) {
	result := sampleResult()
	result.Findings = append(result.Findings, executor.Finding{FindID: "1", Matched: false})
	rec := BuildRecord(42, "Reflected host header", result)
	require.NotNil(t, rec)
	assert.Contains(t, rec.Findings, "0")
	assert.NotContains(t, rec.Findings, "1")
}

func TestBuildRecord_Fields(t *testing.T) {
	rec := BuildRecord(42, "Reflected host header", sampleResult())
	require.NotNil(t, rec)
	assert.Equal(t, "reflect-host", rec.RuleID)
	assert.EqualValues(t, 42, rec.RuleFingerprint)
	assert.Equal(t, "Reflected host header", rec.About)
	assert.Equal(t, "medium", rec.Severity)
	assert.Equal(t, 3, rec.PairIndex)
	require.NotNil(t, rec.InitialRequest)
	assert.Equal(t, "GET", rec.InitialRequest.Method)
	require.NotEmpty(t, rec.ID)

	finding := rec.Findings["0"]
	require.Len(t, finding.SendResults, 1)
	assert.Equal(t, []string{"EVILX"}, finding.SendResults[0].Payload)
	assert.Equal(t, "reflected: EVILX", finding.SendResults[0].Response.Body)
}

func TestMarshal_RoundTrip(t *testing.T) {
	rec := BuildRecord(7, "about", sampleResult())
	b, err := Marshal(rec)
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, rec.RuleID, decoded.RuleID)
}

func TestWriter_AppendsNewlineDelimitedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "findings.jsonl")

	w, err := Open(path)
	require.NoError(t, err)

	rec1 := BuildRecord(1, "one", sampleResult())
	rec2 := BuildRecord(2, "two", sampleResult())
	require.NoError(t, w.Write(rec1))
	require.NoError(t, w.Write(rec2))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 2)

	var decoded Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.EqualValues(t, 1, decoded.RuleFingerprint)
}

func TestWriter_WriteNilIsNoop(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "findings.jsonl"))
	require.NoError(t, err)
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Close())
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
