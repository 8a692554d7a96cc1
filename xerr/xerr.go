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

// Package xerr implements the engine's error taxonomy: ConfigError (rule
// load/parse), CompileError (check_up failures), RuntimeError (per-scan
// failures), and ContractViolation (should-be-unreachable invariant
// breaks). Every error carries enough context - rule id, pair index,
// action kind, action index, field - to localize the failure.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Locator pins an error to where in a rule it originated.
type Locator struct {
	RuleID     string
	PairIndex  int
	ActionKind string
	ActionIdx  int
	Field      string
}

func (l Locator) String() string {
	s := ""
	if l.RuleID != "" {
		s += fmt.Sprintf("rule=%s ", l.RuleID)
	}
	if l.ActionKind != "" {
		s += fmt.Sprintf("action=%s[%d] ", l.ActionKind, l.ActionIdx)
	}
	if l.Field != "" {
		s += fmt.Sprintf("field=%s ", l.Field)
	}
	if l.PairIndex >= 0 {
		s += fmt.Sprintf("pair=%d ", l.PairIndex)
	}
	return s
}

type ConfigError struct{ Locator }

func (e ConfigError) Error() string { return "config error" }

type CompileError struct{ Locator }

func (e CompileError) Error() string { return "compile error" }

type RuntimeError struct{ Locator }

func (e RuntimeError) Error() string { return "runtime error" }

// ContractViolation marks an invariant the compiler should have already
// ruled out. Seeing one in the wild is a bug, not bad input.
type ContractViolation struct{ Locator }

func (e ContractViolation) Error() string { return "contract violation" }

func ErrConfig(loc Locator, format string, args ...any) error {
	return errors.Wrapf(ConfigError{loc}, format, args...)
}

func ErrCompile(loc Locator, format string, args ...any) error {
	return errors.Wrapf(CompileError{loc}, format, args...)
}

func ErrRuntime(loc Locator, format string, args ...any) error {
	return errors.Wrapf(RuntimeError{loc}, format, args...)
}

func ErrContract(loc Locator, format string, args ...any) error {
	return errors.Wrapf(ContractViolation{loc}, format, args...)
}

// Unresolved reference helpers - the common compile-time failure shape.

func ErrUnresolvedWatch(loc Locator, ref string) error {
	return ErrCompile(loc, "cannot find watch action with id %q", ref)
}

func ErrUnresolvedChange(loc Locator, ref string) error {
	return ErrCompile(loc, "cannot find change action with id %q", ref)
}

func ErrUnresolvedSend(loc Locator, ref string) error {
	return ErrCompile(loc, "cannot find send action with id %q", ref)
}

func ErrUnresolvedFind(loc Locator, ref string) error {
	return ErrCompile(loc, "cannot find find action with id %q", ref)
}
