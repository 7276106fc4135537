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

// Package logging builds the process-wide [slog.Logger].
//
// Three output formats are available: JSON (default), key=value text and a
// compact console format for development that is colored only when the
// output is a terminal. Every record logged with a context carrying an
// OpenTelemetry span gets trace_id and span_id attributes, and the service
// name, version and environment are attached to every record when set.
//
//	logger, err := logging.New(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("dispatchd"),
//	    logging.WithLevel(logging.LevelDebug),
//	)
package logging
