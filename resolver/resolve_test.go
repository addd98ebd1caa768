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
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apiversion/version"
)

var (
	v1 = version.MustParse("1")
	v2 = version.MustParse("2")
	v3 = version.MustParse("3")

	segment = URLSegment("/api/v{version}")
	header  = Header(DefaultHeaderName)
	query   = Query(DefaultQueryParam)
)

// standardPolicy supports 1 and 2, defaults to 1 and assumes it.
func standardPolicy(t *testing.T, opts ...Option) *Policy {
	t.Helper()
	base := []Option{
		WithSupported(v1, v2),
		WithDefault(v1),
		AssumeDefaultWhenUnspecified(),
		WithReaders(segment, header, query),
	}
	p, err := NewPolicy(append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func TestResolveDefaultWhenUnspecified(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	res, err := Resolve(p, nil)
	require.NoError(t, err)

	assert.Equal(t, "1", res.Version.String())
	assert.True(t, res.Defaulted)
	assert.Equal(t, SourceNone, res.Source.Kind)
	assert.Equal(t, "1, 2", res.Supported.String())
}

func TestResolveUnsupportedHeader(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	res, err := Resolve(p, Signals{header: "3"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Equal(t, KindUnsupportedVersion, KindOf(err))
	assert.False(t, res.Resolved())
	assert.Equal(t, "1, 2", res.Supported.String(), "supported list is reported on failure")

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "3", re.Candidate.Raw)
	assert.Equal(t, header, re.Candidate.Source)
	assert.Equal(t, http.StatusBadRequest, re.HTTPStatus())
	assert.Equal(t, "UnsupportedApiVersion", re.Code())
}

func TestResolveUnsupportedSegmentIsNotFound(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	_, err := Resolve(p, Signals{segment: "9"})

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusNotFound, re.HTTPStatus())
}

func TestResolveConflictingSources(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	res, err := Resolve(p, Signals{segment: "1", header: "2"})

	assert.ErrorIs(t, err, ErrConflictingVersion)
	assert.False(t, res.Resolved())

	var re *Error
	require.ErrorAs(t, err, &re)
	require.Len(t, re.Conflicts, 2)
	assert.Equal(t, segment, re.Conflicts[0].Source)
	assert.Equal(t, header, re.Conflicts[1].Source)
	assert.Equal(t, "AmbiguousApiVersion", re.Code())
	assert.Contains(t, re.Error(), `"1" from path:/api/v{version}`)
}

func TestResolveAgreeingSources(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	res, err := Resolve(p, Signals{segment: "2", header: "v2", query: "2.0"})
	require.NoError(t, err)

	assert.Equal(t, "2", res.Version.String())
	assert.Equal(t, segment, res.Source, "the first reader in order is reported")
}

func TestResolveDeprecatedStillResolves(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t, WithDeprecated(v1))
	res, err := Resolve(p, Signals{query: "1"})
	require.NoError(t, err)

	assert.Equal(t, "1", res.Version.String())
	assert.Equal(t, []string{"1"}, res.Deprecated.Strings())
	assert.True(t, res.IsDeprecated())
}

func TestResolveVersionRequired(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy(WithSupported(v1, v2), WithReaders(header))
	require.NoError(t, err)

	res, err := Resolve(p, Signals{})
	assert.ErrorIs(t, err, ErrVersionRequired)
	assert.Equal(t, "1, 2", res.Supported.String())

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.HTTPStatus())
	assert.Equal(t, "ApiVersionUnspecified", re.Code())
}

func TestResolveAssumeDefaultWithoutDefault(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy(WithSupported(v1), AssumeDefaultWhenUnspecified())
	require.NoError(t, err)

	_, err = Resolve(p, nil)
	assert.ErrorIs(t, err, ErrVersionRequired)
}

func TestResolveDefaultNotAssumed(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy(WithSupported(v1), WithDefault(v1))
	require.NoError(t, err)

	_, err = Resolve(p, nil)
	assert.ErrorIs(t, err, ErrVersionRequired)
}

func TestResolveMalformedRegardlessOfOtherSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		signals Signals
	}{
		{name: "header only", signals: Signals{header: "abc"}},
		{name: "earlier valid segment", signals: Signals{segment: "1", header: "abc"}},
		{name: "later valid query", signals: Signals{header: "abc", query: "2"}},
		{name: "conflict elsewhere", signals: Signals{segment: "1", header: "abc", query: "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := standardPolicy(t)
			res, err := Resolve(p, tt.signals)

			assert.ErrorIs(t, err, ErrMalformedVersion)
			assert.ErrorIs(t, err, version.ErrMalformed, "parse cause is kept in the chain")
			assert.False(t, res.Resolved())

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "abc", re.Candidate.Raw)
			assert.Equal(t, "InvalidApiVersion", re.Code())
		})
	}
}

func TestResolveIgnoresBlankCandidates(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	res, err := Resolve(p, Signals{segment: "  ", header: "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", res.Version.String())
	assert.Equal(t, header, res.Source)
}

func TestResolveIgnoresUnconfiguredReaders(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy(WithSupported(v1, v2), WithDefault(v1), AssumeDefaultWhenUnspecified(), WithReaders(header))
	require.NoError(t, err)

	res, err := Resolve(p, Signals{Query("other"): "abc", header: "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", res.Version.String())
}

func TestResolveReturnsSupportedForm(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy(WithSupportedVersions("1.0", "2.0"), WithReaders(header))
	require.NoError(t, err)

	res, err := Resolve(p, Signals{header: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "2.0", res.Version.String())
}

func TestResolveNilPolicy(t *testing.T) {
	t.Parallel()

	_, err := Resolve(nil, Signals{header: "1"})
	assert.ErrorIs(t, err, ErrNilPolicy)
	assert.Zero(t, KindOf(err))
}

func TestResolveIsPure(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t, WithDeprecated(v1))
	signals := Signals{header: "2"}

	first, err1 := Resolve(p, signals)
	second, err2 := Resolve(p, signals)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	assert.Equal(t, Signals{header: "2"}, signals)
	assert.Equal(t, "1, 2", p.Supported().String())
	assert.Equal(t, "1", p.Deprecated().String())
}

func TestResolveConcurrent(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t)
	inputs := []Signals{
		{header: "1"},
		{query: "2"},
		{segment: "3"},
		{header: "x"},
		nil,
	}

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := inputs[i%len(inputs)]
			for range 100 {
				res, _ := Resolve(p, s)
				assert.Equal(t, "1, 2", res.Supported.String())
			}
		}(i)
	}
	wg.Wait()
}

func TestResultOfEveryKindCarriesMetadata(t *testing.T) {
	t.Parallel()

	p := standardPolicy(t, WithDeprecated(v1))
	for _, s := range []Signals{{header: "x"}, {segment: "1", query: "2"}, {header: "7"}} {
		res, err := Resolve(p, s)
		require.Error(t, err)
		assert.Equal(t, "1, 2", res.Supported.String())
		assert.Equal(t, "1", res.Deprecated.String())
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "version_required", KindVersionRequired.String())
	assert.Equal(t, "malformed_version", KindMalformedVersion.String())
	assert.Equal(t, "conflicting_version", KindConflictingVersion.String())
	assert.Equal(t, "unsupported_version", KindUnsupportedVersion.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.Equal(t, v3.String(), "3")
}

func BenchmarkResolve(b *testing.B) {
	p := MustNewPolicy(
		WithSupported(v1, v2),
		WithDefault(v1),
		AssumeDefaultWhenUnspecified(),
		WithReaders(segment, header, query),
	)
	signals := Signals{header: "2"}

	b.ReportAllocs()
	for b.Loop() {
		_, _ = Resolve(p, signals)
	}
}
