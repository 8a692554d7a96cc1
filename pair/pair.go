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

import "strings"

// Request is a structured HTTP request as captured by the (external)
// intercepting proxy. URI is the literal request-target token - the
// second field of the request line - which may be a path, an
// absolute-form URL, or an authority, exactly as it appeared on the wire.
type Request struct {
	Method  string
	URI     string
	Version string
	Headers *Headers
	Body    []byte
}

// GetRequestPath returns the path component of URI, stripping any query
// string and, for absolute-form targets, the scheme/authority.
func (r *Request) GetRequestPath() string {
	target := r.URI
	if idx := strings.Index(target, "://"); idx >= 0 {
		rest := target[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			target = rest[slash:]
		} else {
			target = "/"
		}
	}
	if idx := strings.IndexAny(target, "?#"); idx >= 0 {
		target = target[:idx]
	}
	if target == "" {
		return "/"
	}
	return target
}

// GetHostname returns the Host header's value, falling back to the
// authority embedded in an absolute-form URI.
func (r *Request) GetHostname() string {
	if r.Headers != nil {
		if host, ok := r.Headers.Get("Host"); ok {
			return stripPort(host)
		}
	}
	if idx := strings.Index(r.URI, "://"); idx >= 0 {
		rest := r.URI[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			rest = rest[:slash]
		}
		return stripPort(rest)
	}
	return ""
}

// GetScheme reports "https" or "http", inferred from an absolute-form
// URI if present, defaulting to "http" for origin-form requests.
func (r *Request) GetScheme() string {
	if idx := strings.Index(r.URI, "://"); idx >= 0 {
		return r.URI[:idx]
	}
	return "http"
}

func stripPort(hostport string) string {
	if idx := strings.LastIndex(hostport, ":"); idx >= 0 && !strings.Contains(hostport[idx:], "]") {
		return hostport[:idx]
	}
	return hostport
}

// Clone returns a deep copy safe to mutate during the Send phase.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Request{
		Method:  r.Method,
		URI:     r.URI,
		Version: r.Version,
		Headers: r.Headers.Clone(),
		Body:    body,
	}
}

// Response is a structured HTTP response as captured by the proxy.
type Response struct {
	Status  int
	Version string
	Headers *Headers
	Body    []byte
}

func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &Response{
		Status:  r.Status,
		Version: r.Version,
		Headers: r.Headers.Clone(),
		Body:    body,
	}
}

// Pair is one captured HTTP exchange. Either side may be absent: an
// in-flight request with no matching response yet, or a synthetic pair
// built from a Send-phase replay that has no recorded response because
// the send failed.
type Pair struct {
	Index    int
	Request  *Request
	Response *Response
}
