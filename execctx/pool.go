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

package execctx

import (
	"context"

	"github.com/jackc/puddle/v2"

	"github.com/redwire/redwire/constants"
	"github.com/redwire/redwire/expr"
	"github.com/redwire/redwire/pair"
)

// Pool hands out reset Contexts for one rule, reusing their per-scan
// slices and GetResults map across (rule, pair) scans - the same shape the
// teacher's per-alias puddle.Pool[*JSInstance] uses to avoid spinning up
// a JS VM per evaluation.
type Pool struct {
	pool *puddle.Pool[*Context]

	ruleID                                   string
	numWatches, numChanges, numSends, numFind int
}

// NewPool builds a bounded Context pool for one compiled rule's shape.
func NewPool(ruleID string, numWatches, numChanges, numSends, numFinds, maxSize int) (*Pool, error) {
	p := &Pool{ruleID: ruleID, numWatches: numWatches, numChanges: numChanges, numSends: numSends, numFind: numFinds}
	constructor := func(context.Context) (*Context, error) {
		return New(ruleID, 0, &pair.Pair{Request: &pair.Request{Headers: pair.NewHeaders()}}, numWatches, numChanges, numSends, numFinds), nil
	}
	pool, err := puddle.NewPool(&puddle.Config[*Context]{
		Constructor: constructor,
		Destructor:  func(*Context) {},
		MaxSize:     int32(maxSize),
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Acquire returns a Context reset for scanning p, and a release func the
// caller must call exactly once when done with it.
func (p *Pool) Acquire(ctx context.Context, scanPair *pair.Pair) (*Context, func(), error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	c := res.Value()
	c.reset(scanPair, p.numWatches, p.numChanges, p.numSends, p.numFind)
	return c, res.Release, nil
}

// reset clears the per-scan slots so the Context can be reused for a
// different pair. Watch, Change and Find results are truncated and
// refilled in place and GetResults is cleared in place; SendResults is
// a freshly allocated slice on every reset.
func (c *Context) reset(scanPair *pair.Pair, numWatches, numChanges, numSends, numFinds int) {
	c.PairIndex = scanPair.Index
	c.Initial = scanPair

	c.WatchResults = c.WatchResults[:0]
	for i := 0; i < numWatches; i++ {
		c.WatchResults = append(c.WatchResults, nil)
	}
	c.ChangeResults = c.ChangeResults[:0]
	for i := 0; i < numChanges; i++ {
		c.ChangeResults = append(c.ChangeResults, nil)
	}
	c.WatchSucceededForChange = false

	sr := make([][]SendEntry, numSends+1)
	sr[0] = []SendEntry{{
		Request:  scanPair.Request,
		Payloads: []string{constants.InitialPayloadMarker},
		Response: scanPair.Response,
	}}
	c.SendResults = sr

	c.FindResults = c.FindResults[:0]
	for i := 0; i < numFinds; i++ {
		c.FindResults = append(c.FindResults, expr.FinalResult{})
	}
	for k := range c.GetResults {
		delete(c.GetResults, k)
	}
}
