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
	"github.com/pkg/errors"

	"github.com/redwire/redwire/cache"
	"github.com/redwire/redwire/compiler"
	"github.com/redwire/redwire/rule"
)

func addValidateCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("validate", validateCmd).
			WithFlag(cling.
				NewStringCmdInput("pack").
				WithDefault(".").
				WithDescription("Rule pack directory to validate").
				AsFlag(),
			),
	)
}

type validateCmdArgs struct {
	Pack string `cling-name:"pack"`
}

// validateCmd runs check_up over every rule in the pack and reports every
// compile error it finds, without executing anything - a compile error
// does not stop the loop, so one run reports every rule that fails
// check_up. A rule file that fails to load (rule.LoadPack) ends the run
// at the first such file.
func validateCmd(ctx context.Context, args []string) error {
	input := validateCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	docs, err := rule.LoadPack(input.Pack)
	if err != nil {
		return err
	}

	regexes := cache.NewRegexCache(512)
	var failed int
	for _, doc := range docs {
		if _, err := compiler.Compile(doc, regexes); err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", color.RedString("FAIL"), doc.ID, err)
			continue
		}
		fmt.Printf("%s %s\n", color.GreenString("OK"), doc.ID)
	}

	fmt.Printf("\n%d rule(s), %d failed\n", len(docs), failed)
	if failed > 0 {
		return errors.Errorf("%d rule(s) failed validation", failed)
	}
	return nil
}
