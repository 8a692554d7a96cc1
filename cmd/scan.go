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

package cmd

import (
	"context"
	"fmt"

	"github.com/binaek/cling"
	"github.com/fatih/color"

	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/compiler"
	"github.com/redwire/redwire/config"
	"github.com/redwire/redwire/constants"
	"github.com/redwire/redwire/executor"
	"github.com/redwire/redwire/findings"
	"github.com/redwire/redwire/httpclient"
	"github.com/redwire/redwire/otelx"
	"github.com/redwire/redwire/pair"
	"github.com/redwire/redwire/rule"
)

func addScanCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("scan", scanCmd).
			WithFlag(cling.
				NewStringCmdInput("pack").
				WithDefault(".").
				WithDescription("Rule pack directory to load").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("pairs").
				WithDescription("JSON-lines file of captured request/response pairs").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("out").
				WithDefault("").
				WithDescription("Findings output file; defaults to the pack's configured output path").
				AsFlag(),
			).
			WithFlag(
				cling.NewBoolCmdInput("otel-enabled").
					WithDefault(false).
					WithDescription("Enable OpenTelemetry tracing").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEnabled}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-endpoint").
					WithDefault("http://localhost:4318").
					WithDescription("OpenTelemetry HTTP trace endpoint").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEndpoint}),
			),
	)
}

type scanCmdArgs struct {
	Pack         string `cling-name:"pack"`
	Pairs        string `cling-name:"pairs"`
	Out          string `cling-name:"out"`
	OtelEnabled  bool   `cling-name:"otel-enabled"`
	OtelEndpoint string `cling-name:"otel-endpoint"`
}

func scanCmd(ctx context.Context, args []string) error {
	input := scanCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	cfg, err := config.Load(input.Pack)
	if err != nil {
		return err
	}
	if input.Out != "" {
		cfg.OutputPath = input.Out
	}
	if input.OtelEnabled {
		cfg.Otel.Enabled = true
		cfg.Otel.Endpoint = input.OtelEndpoint
	}

	shutdown, err := otelx.InitProvider(ctx, otelx.Config{Enabled: cfg.Otel.Enabled, Endpoint: cfg.Otel.Endpoint})
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()

	docs, err := rule.LoadPack(input.Pack)
	if err != nil {
		return err
	}

	regexes := cache.NewRegexCache(512)
	rules := make([]*compiler.CompiledRule, 0, len(docs))
	for _, doc := range docs {
		cr, err := compiler.Compile(doc, regexes)
		if err != nil {
			return err
		}
		rules = append(rules, cr)
	}

	pairs, err := pair.LoadPairs(input.Pairs)
	if err != nil {
		return err
	}

	writer, err := findings.Open(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	sender := httpclient.NewNetSender(cfg.RequestTimeout)
	pool := executor.NewPool(cfg.Workers, sender, regexes)
	pool.Start(ctx)
	executor.Drain(pool, rules, pairs)

	byID := make(map[string]*compiler.CompiledRule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	total := 0
	for outcome := range pool.Outcomes() {
		if outcome.Stopped {
			continue
		}
		if outcome.Err != nil {
			fmt.Println(color.RedString("error: %v", outcome.Err))
			continue
		}
		cr := byID[outcome.Result.RuleID]
		about := cr.Metadata.Name
		if about == "" {
			about = cr.ID
		}
		rec := findings.BuildRecord(cr.Fingerprint, about, outcome.Result)
		if rec == nil {
			continue
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
		total++
		printFinding(outcome.Result)
	}

	fmt.Printf("scan complete: %d finding(s) written to %s\n", total, cfg.OutputPath)
	return nil
}

func printFinding(r *executor.RuleResult) {
	severityColor := color.New(color.FgWhite)
	switch r.Severity {
	case rule.SeverityHigh:
		severityColor = color.New(color.FgRed, color.Bold)
	case rule.SeverityMedium:
		severityColor = color.New(color.FgYellow)
	case rule.SeverityLow:
		severityColor = color.New(color.FgCyan)
	case rule.SeverityInfo:
		severityColor = color.New(color.FgBlue)
	}
	fmt.Printf("[%s] %s pair #%d: %d finding(s)\n",
		severityColor.Sprint(r.Severity), r.RuleID, r.PairIndex, len(r.Findings))
}
