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

package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for option validation and lookups.
var (
	ErrNilContext     = errors.New("config: nil context")
	ErrNilSource      = errors.New("config: nil source")
	ErrInvalidBinding = errors.New("config: binding must be a non-nil pointer to a struct")
	ErrEmptyPath      = errors.New("config: empty path")
	ErrUnknownFormat  = errors.New("config: cannot detect format")
	ErrInvalidSchema  = errors.New("config: invalid json schema")
	ErrNilValidator   = errors.New("config: nil validator")
	ErrValidatorPanic = errors.New("config: validator panicked")
)

// Error describes a failure while loading configuration: which stage
// (Source), which field if known, and what was being done.
type Error struct {
	Source    string // e.g. "file:apiversion.yaml", "json-schema", "binding"
	Field     string
	Operation string // load, merge, validate, bind
	Err       error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s %s.%s: %v", e.Operation, e.Source, e.Field, e.Err)
	}
	return fmt.Sprintf("config: %s %s: %v", e.Operation, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError returns an Error without field information.
func NewError(source, operation string, err error) *Error {
	return &Error{Source: source, Operation: operation, Err: err}
}

// NewFieldError returns an Error naming the offending field.
func NewFieldError(source, field, operation string, err error) *Error {
	return &Error{Source: source, Field: field, Operation: operation, Err: err}
}
