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

package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/redwire/redwire/pair"
)

// NetSender replays a Request over the real network. Its transport is
// wrapped with otelhttp so each replay attempt's outbound round trip
// nests under the Send-phase span the executor already opened.
type NetSender struct {
	client *http.Client
}

// NewNetSender builds a Sender with the given per-attempt timeout. A
// timeout <= 0 means no client-side deadline.
func NewNetSender(timeout time.Duration) *NetSender {
	return &NetSender{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// Send implements Sender by issuing req against its scheme/host/path.
func (s *NetSender) Send(ctx context.Context, req *pair.Request) (*pair.Response, error) {
	// The Host header keeps its port; GetHostname would strip it.
	host := req.GetHostname()
	if req.Headers != nil {
		if h, ok := req.Headers.Get("Host"); ok {
			host = h
		}
	}
	url := req.GetScheme() + "://" + host + req.GetRequestPath()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for i := 0; i < req.Headers.Len(); i++ {
		e := req.Headers.At(i)
		httpReq.Header.Add(e.Name, e.Value)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := pair.NewHeaders()
	for name, values := range resp.Header {
		for _, v := range values {
			headers.Add(name, v)
		}
	}

	return &pair.Response{
		Status:  resp.StatusCode,
		Version: strconv.Itoa(resp.ProtoMajor) + "." + strconv.Itoa(resp.ProtoMinor),
		Headers: headers,
		Body:    body,
	}, nil
}
