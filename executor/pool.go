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

package executor

import (
	"context"
	"runtime"
	"sync"

	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/compiler"
	"github.com/redwire/redwire/execctx"
	"github.com/redwire/redwire/httpclient"
	"github.com/redwire/redwire/pair"
)

// maxContextsPerRule bounds how many Contexts a rule's pool keeps warm
// across concurrent scans - high enough that a worker pool sized to
// runtime.NumCPU() never blocks acquiring one in steady state.
const maxContextsPerRule = 64

// Job is one (rule, pair) combination queued for scanning.
type Job struct {
	Rule *compiler.CompiledRule
	Pair *pair.Pair
}

// Outcome is one message a worker writes to the aggregate queue: either
// a completed scan's RuleResult, a scan-time error, or - once a worker
// has drained the job queue after Close - a Stopped marker, reported
// once per worker so the coordinator knows when every worker has quit.
type Outcome struct {
	Result  *RuleResult
	Err     error
	Stopped bool
}

// Pool is a fixed-size worker pool that scans (rule,pair) jobs
// concurrently. Each worker is single-threaded with its own Context per
// job. There is no mid-run cancellation: after Close, each worker
// finishes every job still queued before reporting Stopped.
type Pool struct {
	workers int
	jobs    chan Job
	out     chan Outcome
	wg      sync.WaitGroup

	sender  httpclient.Sender
	regexes *cache.RegexCache

	ctxPoolsMu sync.Mutex
	ctxPools   map[string]*execctx.Pool
}

// NewPool builds a Pool with the given worker count, defaulting to the
// host's CPU count when workers <= 0.
func NewPool(workers int, sender httpclient.Sender, regexes *cache.RegexCache) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers:  workers,
		jobs:     make(chan Job, workers*4),
		out:      make(chan Outcome, workers*4),
		sender:   sender,
		regexes:  regexes,
		ctxPools: make(map[string]*execctx.Pool),
	}
}

// ctxPoolFor returns (creating if absent) the Context pool for cr's shape.
func (p *Pool) ctxPoolFor(cr *compiler.CompiledRule) (*execctx.Pool, error) {
	p.ctxPoolsMu.Lock()
	defer p.ctxPoolsMu.Unlock()
	if ecp, ok := p.ctxPools[cr.ID]; ok {
		return ecp, nil
	}
	ecp, err := execctx.NewPool(cr.ID, len(cr.Watches), len(cr.Changes), len(cr.Sends), len(cr.Finds), maxContextsPerRule)
	if err != nil {
		return nil, err
	}
	p.ctxPools[cr.ID] = ecp
	return ecp, nil
}

// Start launches the worker goroutines. Enqueue jobs via Submit, then
// call Close so workers drain and report Stopped once the queue empties.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	go func() {
		p.wg.Wait()
		close(p.out)
	}()
}

// Submit enqueues one (rule, pair) scan. It blocks if the queue is full.
func (p *Pool) Submit(j Job) {
	p.jobs <- j
}

// Close signals that no further jobs will be submitted; each worker
// finishes its current job, then drains the rest of the queue to
// completion before reporting Stopped.
func (p *Pool) Close() {
	close(p.jobs)
}

// Outcomes returns the channel the coordinator drains results from.
// The channel closes once every worker has reported Stopped.
func (p *Pool) Outcomes() <-chan Outcome {
	return p.out
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.jobs {
		ecp, err := p.ctxPoolFor(job.Rule)
		if err != nil {
			p.out <- Outcome{Err: err}
			continue
		}
		result, err := ScanPooled(ctx, job.Rule, job.Pair, p.sender, p.regexes, ecp)
		if err != nil {
			p.out <- Outcome{Err: err}
			continue
		}
		p.out <- Outcome{Result: result}
	}
	p.out <- Outcome{Stopped: true}
}

// Drain reads every job × rule combination from rules × pairs into the
// pool, then closes the queue - the shape the coordinator uses to
// enqueue a full scan run before waiting out Outcomes.
func Drain(p *Pool, rules []*compiler.CompiledRule, pairs []*pair.Pair) {
	for _, r := range rules {
		for _, pr := range pairs {
			p.Submit(Job{Rule: r, Pair: pr})
		}
	}
	p.Close()
}
