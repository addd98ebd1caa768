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

package resolver

import (
	"errors"
	"strings"

	"rivaas.dev/apiversion/version"
)

// ErrNilPolicy is returned by Resolve when called without a policy.
var ErrNilPolicy = errors.New("resolver: nil policy")

// Result is the outcome of one resolution.
//
// Supported and Deprecated are always populated from the policy, even when
// resolution fails, so callers can still advertise the valid versions.
type Result struct {
	// Version is the resolved version, or the zero Version on failure.
	// On success it is always a member of Supported.
	Version version.Version

	// Source is the reader that supplied the version. It is the zero Reader
	// (kind SourceNone) when the default was applied or nothing resolved.
	Source Reader

	// Defaulted reports whether the policy default was applied.
	Defaulted bool

	// Supported lists every version the route supports.
	Supported version.Set

	// Deprecated lists the supported versions that are deprecated.
	Deprecated version.Set
}

// Resolved reports whether a version was determined.
func (r Result) Resolved() bool { return !r.Version.IsZero() }

// IsDeprecated reports whether the resolved version is deprecated.
func (r Result) IsDeprecated() bool {
	return r.Resolved() && r.Deprecated.Contains(r.Version)
}

// parsedCandidate pairs a candidate with its parsed version.
type parsedCandidate struct {
	Candidate
	version version.Version
}

// Resolve determines the effective API version for one request.
//
// The policy's readers are walked in order and every non-empty candidate in
// signals is parsed:
//   - any candidate that does not parse fails with [KindMalformedVersion];
//   - candidates that parse to different versions fail with [KindConflictingVersion];
//   - no candidate at all resolves to the default when the policy assumes
//     it, and fails with [KindVersionRequired] otherwise;
//   - a version outside the supported set fails with [KindUnsupportedVersion].
//
// Deprecated versions resolve normally. Resolve is a pure function: it does
// not modify policy or signals and is safe for concurrent use.
func Resolve(p *Policy, signals Signals) (Result, error) {
	if p == nil {
		return Result{}, ErrNilPolicy
	}

	res := Result{
		Supported:  p.supported,
		Deprecated: p.deprecated,
	}

	found := make([]parsedCandidate, 0, len(p.readers))
	for _, r := range p.readers {
		raw := strings.TrimSpace(signals[r])
		if raw == "" {
			continue
		}
		c := Candidate{Source: r, Raw: raw}

		v, err := version.Parse(raw)
		if err != nil {
			return res, &Error{Kind: KindMalformedVersion, Candidate: c, Cause: err}
		}
		found = append(found, parsedCandidate{Candidate: c, version: v})
	}

	// Parse everything before judging conflicts so that a malformed value
	// anywhere wins over a conflict.
	for i := 1; i < len(found); i++ {
		if !found[i].version.Equal(found[0].version) {
			conflicts := make([]Candidate, len(found))
			for j, f := range found {
				conflicts[j] = f.Candidate
			}
			return res, &Error{Kind: KindConflictingVersion, Candidate: found[0].Candidate, Conflicts: conflicts}
		}
	}

	var chosen version.Version
	var requested Candidate
	switch {
	case len(found) > 0:
		chosen = found[0].version
		requested = found[0].Candidate
		res.Source = requested.Source
	case p.assumeDefault && !p.defaultVer.IsZero():
		chosen = p.defaultVer
		requested = Candidate{Raw: chosen.String()}
		res.Defaulted = true
	default:
		return res, &Error{Kind: KindVersionRequired}
	}

	member, ok := p.supported.Lookup(chosen)
	if !ok {
		res.Source = Reader{}
		res.Defaulted = false
		return res, &Error{Kind: KindUnsupportedVersion, Candidate: requested}
	}

	res.Version = member
	return res, nil
}
