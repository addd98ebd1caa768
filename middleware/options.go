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

package middleware

import (
	"log/slog"
	"slices"
	"time"

	"rivaas.dev/apiversion/problem"
)

// DefaultRequestIDHeader is the header carrying the request ID.
const DefaultRequestIDHeader = "X-Request-ID"

// Option configures a middleware. Options that do not apply to a
// middleware are ignored by it.
type Option func(*settings)

type settings struct {
	logger        *slog.Logger
	formatter     problem.Formatter
	headerName    string
	generator     func() string
	allowClientID bool
	stackSize     int
	excludePaths  []string
	slowThreshold time.Duration
}

func newSettings(opts []Option) *settings {
	s := &settings{
		formatter:     problem.NewRFC9457(""),
		headerName:    DefaultRequestIDHeader,
		generator:     newUUIDv7,
		allowClientID: true,
		stackSize:     4 << 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *settings) excluded(path string) bool {
	return slices.Contains(s.excludePaths, path)
}

// WithLogger sets the logger for recovery and access logs. Without it
// nothing is logged.
//
// Example:
//
//	middleware.AccessLog(middleware.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithFormatter sets the problem formatter Recovery writes 500 responses
// with. The default is RFC 9457.
func WithFormatter(f problem.Formatter) Option {
	return func(s *settings) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithHeader sets the request ID header. An empty name keeps the default.
func WithHeader(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.headerName = name
		}
	}
}

// WithULID generates 26 character ULIDs instead of UUID v7 values.
func WithULID() Option {
	return WithGenerator(newULID)
}

// WithGenerator replaces the request ID generator.
//
// Example:
//
//	middleware.RequestID(middleware.WithGenerator(func() string {
//	    return fmt.Sprintf("req-%d", time.Now().UnixNano())
//	}))
func WithGenerator(gen func() string) Option {
	return func(s *settings) {
		if gen != nil {
			s.generator = gen
		}
	}
}

// WithAllowClientID controls whether an incoming request ID is trusted.
// Default: true.
func WithAllowClientID(allow bool) Option {
	return func(s *settings) {
		s.allowClientID = allow
	}
}

// WithStackSize caps the logged stack trace in bytes. Zero disables it.
// Default: 4KB.
func WithStackSize(size int) Option {
	return func(s *settings) {
		s.stackSize = size
	}
}

// WithExcludePaths skips access logging for exact paths such as
// "/metrics" or "/healthz".
func WithExcludePaths(paths ...string) Option {
	return func(s *settings) {
		s.excludePaths = append(s.excludePaths, paths...)
	}
}

// WithSlowThreshold logs requests slower than d at warn level with
// slow=true.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *settings) {
		s.slowThreshold = d
	}
}
