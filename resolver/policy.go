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
	"fmt"
	"slices"
	"time"

	"rivaas.dev/apiversion/version"
)

// Policy is the per-route versioning configuration.
//
// A Policy is built once with [NewPolicy], typically at route registration,
// and is immutable afterwards. It is safe for concurrent use.
type Policy struct {
	supported     version.Set
	deprecated    version.Set
	defaultVer    version.Version
	assumeDefault bool
	readers       []Reader
	lifecycles    map[version.Version]Lifecycle

	// collected by options, folded into supported by NewPolicy
	supportedIn []version.Version
}

// Lifecycle holds advisory lifecycle metadata for one version.
// All fields are optional.
type Lifecycle struct {
	Deprecated      bool
	DeprecatedSince time.Time
	Sunset          time.Time
	MigrationURL    string
	Successor       version.Version
}

// Option configures a Policy.
type Option func(*Policy) error

// LifecycleOption configures a version's lifecycle.
type LifecycleOption func(*Lifecycle)

// NewPolicy builds an immutable Policy from opts.
//
// When no reader is configured the conventional readers are used
// (see [DefaultReaders]).
//
// Errors:
//   - [ErrNoSupportedVersions] when no supported version is given
//   - [ErrDefaultNotSupported] when the default is not supported
//   - [ErrDeprecatedNotSupported] when a deprecated version is not supported
//   - [ErrLifecycleNotSupported] when lifecycle metadata targets an unknown version
//   - reader validation errors, and [ErrDuplicateReader]
func NewPolicy(opts ...Option) (*Policy, error) {
	p := &Policy{
		lifecycles: make(map[version.Version]Lifecycle),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	p.supported = version.NewSet(p.supportedIn...)
	p.supportedIn = nil

	// Report deprecated versions in the form they were declared supported.
	deprecated := make([]version.Version, 0, len(p.lifecycles))
	for v, lc := range p.lifecycles {
		if !lc.Deprecated {
			continue
		}
		if member, ok := p.supported.Lookup(v); ok {
			v = member
		}
		deprecated = append(deprecated, v)
	}
	p.deprecated = version.NewSet(deprecated...)

	if len(p.readers) == 0 {
		p.readers = DefaultReaders()
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	return p, nil
}

// MustNewPolicy is like [NewPolicy] but panics on error.
func MustNewPolicy(opts ...Option) *Policy {
	p, err := NewPolicy(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// validate checks the policy invariants.
func (p *Policy) validate() error {
	if p.supported.Len() == 0 {
		return ErrNoSupportedVersions
	}
	if !p.defaultVer.IsZero() && !p.supported.Contains(p.defaultVer) {
		return fmt.Errorf("%w: %s not in [%s]", ErrDefaultNotSupported, p.defaultVer, p.supported)
	}
	if !p.deprecated.SubsetOf(p.supported) {
		extra := p.deprecated.Without(p.supported)
		return fmt.Errorf("%w: [%s]", ErrDeprecatedNotSupported, extra)
	}
	for v := range p.lifecycles {
		if !p.supported.Contains(v) {
			return fmt.Errorf("%w: %s", ErrLifecycleNotSupported, v)
		}
	}

	for i, r := range p.readers {
		if err := r.validate(); err != nil {
			return fmt.Errorf("reader %d: %w", i, err)
		}
		if slices.Contains(p.readers[:i], r) {
			return fmt.Errorf("%w: %s", ErrDuplicateReader, r)
		}
	}

	return nil
}

// lifecycleKey normalizes v so that "1" and "1.0" share one entry.
func lifecycleKey(v version.Version) version.Version {
	return version.NewMinor(v.Major(), v.Minor())
}

// Supported returns the supported versions.
func (p *Policy) Supported() version.Set { return p.supported }

// Deprecated returns the deprecated versions, a subset of Supported.
func (p *Policy) Deprecated() version.Set { return p.deprecated }

// Default returns the default version, if one is configured.
func (p *Policy) Default() (version.Version, bool) {
	return p.defaultVer, !p.defaultVer.IsZero()
}

// AssumeDefault reports whether the default applies to requests that
// specify no version.
func (p *Policy) AssumeDefault() bool { return p.assumeDefault }

// Readers returns a copy of the configured readers, in evaluation order.
func (p *Policy) Readers() []Reader { return slices.Clone(p.readers) }

// IsDeprecated reports whether v is deprecated by this policy.
func (p *Policy) IsDeprecated(v version.Version) bool { return p.deprecated.Contains(v) }

// Lifecycle returns the lifecycle metadata for v.
func (p *Policy) Lifecycle(v version.Version) (Lifecycle, bool) {
	lc, ok := p.lifecycles[lifecycleKey(v)]
	return lc, ok
}

// ═══════════════════════════════════════════════════════════════════════════════
// Policy Options
// ═══════════════════════════════════════════════════════════════════════════════

// WithSupported adds supported versions.
//
// Example:
//
//	resolver.WithSupported(version.New(1), version.New(2))
func WithSupported(vs ...version.Version) Option {
	return func(p *Policy) error {
		for i, v := range vs {
			if v.IsZero() {
				return fmt.Errorf("%w: supported version at index %d", ErrZeroVersion, i)
			}
		}
		p.supportedIn = append(p.supportedIn, vs...)
		return nil
	}
}

// WithSupportedVersions parses and adds supported versions.
//
// Example:
//
//	resolver.WithSupportedVersions("1.0", "2.0")
func WithSupportedVersions(vs ...string) Option {
	return func(p *Policy) error {
		for _, s := range vs {
			v, err := version.Parse(s)
			if err != nil {
				return fmt.Errorf("supported version: %w", err)
			}
			p.supportedIn = append(p.supportedIn, v)
		}
		return nil
	}
}

// WithDefault sets the default version. It must also be supported.
func WithDefault(v version.Version) Option {
	return func(p *Policy) error {
		if v.IsZero() {
			return fmt.Errorf("%w: default version", ErrZeroVersion)
		}
		p.defaultVer = v
		return nil
	}
}

// AssumeDefaultWhenUnspecified makes requests without any version
// resolve to the default version.
func AssumeDefaultWhenUnspecified() Option {
	return WithAssumeDefault(true)
}

// WithAssumeDefault sets whether requests without any version resolve
// to the default version.
func WithAssumeDefault(enabled bool) Option {
	return func(p *Policy) error {
		p.assumeDefault = enabled
		return nil
	}
}

// WithReaders appends version readers. Readers are evaluated in the
// order they are added.
//
// Example:
//
//	resolver.WithReaders(
//	    resolver.URLSegment("/api/v{version}"),
//	    resolver.Header("X-Api-Version"),
//	    resolver.Query("api-version"),
//	)
func WithReaders(rs ...Reader) Option {
	return func(p *Policy) error {
		p.readers = append(p.readers, rs...)
		return nil
	}
}

// WithDeprecated marks versions as deprecated. Deprecated versions stay
// resolvable; they are only reported to clients.
func WithDeprecated(vs ...version.Version) Option {
	return func(p *Policy) error {
		for i, v := range vs {
			if v.IsZero() {
				return fmt.Errorf("%w: deprecated version at index %d", ErrZeroVersion, i)
			}
			key := lifecycleKey(v)
			lc := p.lifecycles[key]
			lc.Deprecated = true
			p.lifecycles[key] = lc
		}
		return nil
	}
}

// WithLifecycle attaches lifecycle metadata to a supported version.
//
// Example:
//
//	resolver.WithLifecycle(version.New(1),
//	    resolver.Deprecated(),
//	    resolver.Sunset(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
//	    resolver.MigrationDocs("https://docs.example.com/v1-to-v2"),
//	)
func WithLifecycle(v version.Version, opts ...LifecycleOption) Option {
	return func(p *Policy) error {
		if v.IsZero() {
			return fmt.Errorf("%w: lifecycle version", ErrZeroVersion)
		}
		key := lifecycleKey(v)
		lc := p.lifecycles[key]
		for _, opt := range opts {
			opt(&lc)
		}
		p.lifecycles[key] = lc
		return nil
	}
}

// Deprecated marks the version as deprecated.
func Deprecated() LifecycleOption {
	return func(lc *Lifecycle) {
		lc.Deprecated = true
	}
}

// DeprecatedSince marks the version as deprecated since date.
func DeprecatedSince(date time.Time) LifecycleOption {
	return func(lc *Lifecycle) {
		lc.Deprecated = true
		lc.DeprecatedSince = date
	}
}

// Sunset sets when the version will be removed.
func Sunset(date time.Time) LifecycleOption {
	return func(lc *Lifecycle) {
		lc.Sunset = date
	}
}

// MigrationDocs sets the URL of the migration guide, advertised in Link headers.
func MigrationDocs(url string) LifecycleOption {
	return func(lc *Lifecycle) {
		lc.MigrationURL = url
	}
}

// SuccessorVersion names the version clients should migrate to.
func SuccessorVersion(v version.Version) LifecycleOption {
	return func(lc *Lifecycle) {
		lc.Successor = v
	}
}
