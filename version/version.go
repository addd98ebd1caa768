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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Static errors for version parsing.
var (
	ErrEmpty     = errors.New("version cannot be empty")
	ErrMalformed = errors.New("malformed version")
)

// maxComponent bounds each numeric component so that values stay
// well inside int on every platform.
const maxComponent = 1<<31 - 1

// Version is an API version: a major number with an optional minor number.
// The zero value is not a valid version; use [Version.IsZero] to detect it.
type Version struct {
	major    int
	minor    int
	hasMinor bool
	valid    bool
}

// New returns the version "major". A negative major yields the zero
// Version, which policies reject with resolver.ErrZeroVersion.
func New(major int) Version {
	if major < 0 {
		return Version{}
	}
	return Version{major: major, valid: true}
}

// NewMinor returns the version "major.minor". Negative components yield
// the zero Version.
func NewMinor(major, minor int) Version {
	if major < 0 || minor < 0 {
		return Version{}
	}
	return Version{major: major, minor: minor, hasMinor: true, valid: true}
}

// Parse parses a version string such as "1", "1.2", "v2" or "V2.0".
// Surrounding whitespace is ignored.
//
// Errors:
//   - [ErrEmpty] if s is empty after trimming
//   - [ErrMalformed] if s is not a major or major.minor pair of
//     non-negative decimal integers
func Parse(s string) (Version, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, ErrEmpty
	}
	if s[0] == 'v' || s[0] == 'V' {
		s = s[1:]
	}

	majorText, minorText, hasMinor := strings.Cut(s, ".")
	major, err := parseComponent(majorText)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: major %v", ErrMalformed, raw, err)
	}
	if !hasMinor {
		return New(major), nil
	}

	minor, err := parseComponent(minorText)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: minor %v", ErrMalformed, raw, err)
	}

	return NewMinor(major, minor), nil
}

// MustParse is like [Parse] but panics if s cannot be parsed.
// Use it for constants in tests and static route tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("version: MustParse(%q): %v", s, err))
	}
	return v
}

// parseComponent accepts only plain decimal digits; signs, spaces,
// and further dots are rejected.
func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing number")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("unexpected character %q", s[i])
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > maxComponent {
		return 0, errors.New("number out of range")
	}
	return n, nil
}

// Major returns the major component.
func (v Version) Major() int { return v.major }

// Minor returns the minor component, or 0 when the version has none.
func (v Version) Minor() int { return v.minor }

// HasMinor reports whether the minor component was given explicitly.
func (v Version) HasMinor() bool { return v.hasMinor }

// IsZero reports whether v is the zero Version (no version).
func (v Version) IsZero() bool { return !v.valid }

// String returns the canonical form: "1" or "1.2".
// The zero Version formats as the empty string.
func (v Version) String() string {
	if !v.valid {
		return ""
	}
	if v.hasMinor {
		return strconv.Itoa(v.major) + "." + strconv.Itoa(v.minor)
	}
	return strconv.Itoa(v.major)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before,
// equal to, or after w. The zero Version sorts before every valid one.
func (v Version) Compare(w Version) int {
	switch {
	case !v.valid && !w.valid:
		return 0
	case !v.valid:
		return -1
	case !w.valid:
		return 1
	}
	if v.major != w.major {
		if v.major < w.major {
			return -1
		}
		return 1
	}
	if v.minor != w.minor {
		if v.minor < w.minor {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports whether v and w denote the same version.
// "1" and "1.0" are equal.
func (v Version) Equal(w Version) bool { return v.Compare(w) == 0 }

// Less reports whether v sorts before w.
func (v Version) Less(w Version) bool { return v.Compare(w) < 0 }

// MarshalText implements [encoding.TextMarshaler].
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
