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

package constants

const (
	APPNAME    = "redwire"
	APPVERSION = "0.1.0"

	// RuleFileExtension is the suffix rule files in a pack are discovered by.
	RuleFileExtension = ".rule.yaml"

	// ConfigFileName is the engine configuration file looked up relative to
	// the pack directory, same way the teacher locates its pack manifest.
	ConfigFileName = APPNAME + ".toml"

	// InitialPayloadMarker is the synthetic payload marker seeded into send_results[0]
	// so that `initial` references resolve uniformly through the same
	// machinery as real Send actions.
	InitialPayloadMarker = "__INITIAL_PAIR__"
)

const (
	EnvLogLevel           = "REDWIRE_LOG_LEVEL"
	EnvDebug              = "REDWIRE_DEBUG"
	EnvOtelEnabled        = "REDWIRE_OTEL_ENABLED"
	EnvOtelEndpoint       = "REDWIRE_OTEL_ENDPOINT"
	EnvWorkers            = "REDWIRE_WORKERS"
)
