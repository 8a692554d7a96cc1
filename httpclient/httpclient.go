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

// Package httpclient specifies the contract the Send phase replays
// requests through. The core never constructs its own transport: the
// host supplies a Sender, synchronous from the core's point of view even
// if it bridges to an async client underneath.
package httpclient

import (
	"context"

	"github.com/redwire/redwire/pair"
)

// Sender performs one send attempt with its own configured timeout. The
// core calls it once per repeat count; retry semantics belong entirely to
// the rule's `repeat`/`timeout_after` fields, never to the Sender.
type Sender interface {
	Send(ctx context.Context, req *pair.Request) (*pair.Response, error)
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(ctx context.Context, req *pair.Request) (*pair.Response, error)

func (f SenderFunc) Send(ctx context.Context, req *pair.Request) (*pair.Response, error) {
	return f(ctx, req)
}
