// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads layered configuration into a struct.
//
// Sources are read in the order they were added and merged key by key, so a
// later source overrides an earlier one. Keys are case-insensitive. The
// merged map can be validated against a JSON Schema and is decoded into a
// bound struct whose `default:"..."` tags fill in anything no source set.
//
//	var s Settings
//	cfg, err := config.New(
//	    config.WithFile("dispatch.yaml"),
//	    config.WithConsul("dispatch/${ENV}.yaml"), // only with CONSUL_HTTP_ADDR
//	    config.WithEnv("DISPATCH_"),
//	    config.WithBinding(&s),
//	)
//	if err == nil {
//	    err = cfg.Load(ctx)
//	}
//
// Supported formats are YAML, TOML and JSON, detected from the extension.
package config
