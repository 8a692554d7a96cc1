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

package rule

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/redwire/redwire/constants"
	"github.com/redwire/redwire/xerr"
)

// LoadFile decodes a single *.rule.yaml file and validates that it has a
// top-level id and that its metadata.version parses as semver - the
// loader's only gates; everything else is left for the compiler.
func LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerr.ErrConfig(xerr.Locator{Field: path}, "reading rule file: %v", err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, xerr.ErrConfig(xerr.Locator{Field: path}, "parsing rule file: %v", err)
	}
	doc.SourcePath = path

	if strings.TrimSpace(doc.ID) == "" {
		return nil, xerr.ErrConfig(xerr.Locator{Field: path}, "rule is missing top-level id")
	}
	if doc.Metadata.Version != "" {
		if _, err := semver.NewVersion(doc.Metadata.Version); err != nil {
			return nil, xerr.ErrConfig(
				xerr.Locator{RuleID: doc.ID, Field: "metadata.version"},
				"invalid semver %q: %v", doc.Metadata.Version, err,
			)
		}
	}
	return &doc, nil
}

// LoadPack walks dir for files named *.rule.yaml and loads each one. Rules
// are returned sorted by SourcePath, so a pack loads deterministically
// regardless of directory iteration order.
func LoadPack(dir string) ([]*Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, constants.RuleFileExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, xerr.ErrConfig(xerr.Locator{Field: dir}, "walking rule pack: %v", err)
	}
	sort.Strings(paths)

	byID := make(map[string]*Document, len(paths))
	order := make([]string, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		prev, ok := byID[doc.ID]
		if !ok {
			byID[doc.ID] = doc
			order = append(order, doc.ID)
			continue
		}
		winner, err := newerRule(prev, doc)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = winner
	}

	docs := make([]*Document, 0, len(order))
	for _, id := range order {
		docs = append(docs, byID[id])
	}
	return docs, nil
}

// newerRule picks whichever of a, b declares the higher metadata.version,
// so a pack may carry a superseding copy of a rule id without the loader
// treating it as an error. Two files claiming the same id with equal (or
// both-empty) versions cannot be ordered and is a ConfigError.
func newerRule(a, b *Document) (*Document, error) {
	av, aErr := semver.NewVersion(a.Metadata.Version)
	bv, bErr := semver.NewVersion(b.Metadata.Version)
	if aErr != nil || bErr != nil || av.Equal(bv) {
		return nil, xerr.ErrConfig(
			xerr.Locator{RuleID: a.ID},
			"duplicate rule id %q in %s and %s with indistinguishable versions", a.ID, a.SourcePath, b.SourcePath,
		)
	}
	if av.GreaterThan(bv) {
		return a, nil
	}
	return b, nil
}
