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

package pair

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// wireHeader, wireRequest and wireResponse mirror the shape the
// intercepting proxy persists a captured pair in - one JSON object per
// line, the same convention the engine uses for its findings output.
type wireHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type wireRequest struct {
	Method  string       `json:"method"`
	URI     string       `json:"uri"`
	Version string       `json:"version"`
	Headers []wireHeader `json:"headers"`
	Body    string       `json:"body"`
}

type wireResponse struct {
	Status  int          `json:"status"`
	Version string       `json:"version"`
	Headers []wireHeader `json:"headers"`
	Body    string       `json:"body"`
}

type wirePair struct {
	Request  *wireRequest  `json:"request"`
	Response *wireResponse `json:"response,omitempty"`
}

// LoadPairs reads a JSON-lines file of captured request/response pairs,
// assigning each a 0-based Index in file order.
func LoadPairs(path string) ([]*Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open pairs file")
	}
	defer func() { _ = f.Close() }()

	var pairs []*Pair
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	idx := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var wp wirePair
		if err := json.Unmarshal(line, &wp); err != nil {
			return nil, errors.Wrapf(err, "parse pair at line %d", idx+1)
		}
		if wp.Request == nil {
			return nil, errors.Errorf("pair at line %d has no request", idx+1)
		}
		pairs = append(pairs, &Pair{
			Index:    idx,
			Request:  fromWireRequest(wp.Request),
			Response: fromWireResponse(wp.Response),
		})
		idx++
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "read pairs file")
	}
	return pairs, nil
}

func fromWireRequest(w *wireRequest) *Request {
	h := NewHeaders()
	for _, e := range w.Headers {
		h.Add(e.Name, e.Value)
	}
	return &Request{Method: w.Method, URI: w.URI, Version: w.Version, Headers: h, Body: []byte(w.Body)}
}

func fromWireResponse(w *wireResponse) *Response {
	if w == nil {
		return nil
	}
	h := NewHeaders()
	for _, e := range w.Headers {
		h.Add(e.Name, e.Value)
	}
	return &Response{Status: w.Status, Version: w.Version, Headers: h, Body: []byte(w.Body)}
}
