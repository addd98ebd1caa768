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

// Package version provides the API version value used throughout apiversion.
//
// A [Version] is a major number with an optional minor number. It is an
// immutable, comparable value: equality and ordering are defined over
// (major, minor), where an absent minor compares as zero.
//
// # Parsing
//
//	v, err := version.Parse("2")     // 2
//	v, err := version.Parse("v1.1")  // 1.1
//	v, err := version.Parse("abc")   // ErrMalformed
//
// The canonical string form keeps the shape the version was written in,
// without the optional "v" prefix:
//
//	version.MustParse("v2").String()   // "2"
//	version.MustParse("1.0").String()  // "1.0"
//
// # Sets
//
// [Set] is a sorted, de-duplicated list of versions used for the
// supported and deprecated version lists reported to clients:
//
//	s := version.NewSet(version.MustParse("2"), version.MustParse("1"))
//	s.String() // "1, 2"
package version
