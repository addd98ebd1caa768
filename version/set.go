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

package version

import (
	"slices"
	"strings"
)

// Set is an ascending, de-duplicated list of versions.
// A Set is never modified after construction; methods that look like
// mutations return a new Set.
type Set struct {
	items []Version
}

// NewSet builds a Set from vs, sorting them and dropping duplicates
// and zero versions. When two entries are equal ("1" and "1.0") the
// first one given wins.
func NewSet(vs ...Version) Set {
	items := make([]Version, 0, len(vs))
	for _, v := range vs {
		if v.IsZero() {
			continue
		}
		if slices.ContainsFunc(items, v.Equal) {
			continue
		}
		items = append(items, v)
	}
	slices.SortStableFunc(items, Version.Compare)
	return Set{items: items}
}

// Len returns the number of versions in the set.
func (s Set) Len() int { return len(s.items) }

// Contains reports whether v is a member of the set.
func (s Set) Contains(v Version) bool {
	_, found := slices.BinarySearchFunc(s.items, v, Version.Compare)
	return found
}

// Lookup returns the member equal to v, keeping the member's own form.
func (s Set) Lookup(v Version) (Version, bool) {
	i, found := slices.BinarySearchFunc(s.items, v, Version.Compare)
	if !found {
		return Version{}, false
	}
	return s.items[i], true
}

// SubsetOf reports whether every member of s is a member of other.
func (s Set) SubsetOf(other Set) bool {
	for _, v := range s.items {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Max returns the highest version in the set.
func (s Set) Max() (Version, bool) {
	if len(s.items) == 0 {
		return Version{}, false
	}
	return s.items[len(s.items)-1], true
}

// Union returns a set holding the members of both s and other.
func (s Set) Union(other Set) Set {
	return NewSet(append(s.Versions(), other.items...)...)
}

// Without returns a set holding the members of s that are not in other.
func (s Set) Without(other Set) Set {
	items := make([]Version, 0, len(s.items))
	for _, v := range s.items {
		if !other.Contains(v) {
			items = append(items, v)
		}
	}
	return Set{items: items}
}

// Versions returns a copy of the members in ascending order.
func (s Set) Versions() []Version {
	return slices.Clone(s.items)
}

// Strings returns the canonical form of each member in ascending order.
func (s Set) Strings() []string {
	out := make([]string, len(s.items))
	for i, v := range s.items {
		out[i] = v.String()
	}
	return out
}

// String joins the members with ", ", the format used by the
// api-supported-versions and api-deprecated-versions headers.
func (s Set) String() string {
	return strings.Join(s.Strings(), ", ")
}
