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

package negotiate

import (
	"context"

	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

type resultKey struct{}

// WithResult returns a copy of ctx carrying res.
func WithResult(ctx context.Context, res resolver.Result) context.Context {
	return context.WithValue(ctx, resultKey{}, res)
}

// FromContext returns the resolution result stored by the middleware.
func FromContext(ctx context.Context) (resolver.Result, bool) {
	res, ok := ctx.Value(resultKey{}).(resolver.Result)
	return res, ok
}

// VersionFromContext returns the resolved version, or the zero Version
// when ctx carries no result.
func VersionFromContext(ctx context.Context) version.Version {
	res, _ := FromContext(ctx)
	return res.Version
}
