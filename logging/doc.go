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

// Package logging builds the structured slog logger used by the API
// version toolkit.
//
// Three handlers are available: JSON for production, text for plain
// terminals, and a colored console handler for local development.
// Every record carries the configured service attributes, and records
// logged with a context holding an OpenTelemetry span get trace_id and
// span_id attached.
//
// # Basic Usage
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("apiversiond"),
//	    logging.WithServiceVersion("1.4.0"),
//	)
//	logger.Info("listening", "addr", ":8080")
//
// Components take a plain *slog.Logger:
//
//	n := negotiate.MustNew(policy, negotiate.WithLogger(logger.Logger()))
//
// # Dynamic Log Levels
//
//	logger.SetLevel(logging.LevelDebug)
//
// # Sensitive Data Redaction
//
// Values of password, token, secret, api_key and authorization attributes
// are replaced before they reach the handler.
package logging
