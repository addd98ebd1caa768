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

package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"rivaas.dev/apiversion/config"
	"rivaas.dev/apiversion/logging"
	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/problem"
)

var errUpstream = errors.New("upstream unavailable")

// ProxyFactory returns a [config.HandlerFactory] that proxies each route
// version to its upstream. The upstream receives the path without the
// version segment and the negotiated version in the api-version header.
func ProxyFactory(logger *slog.Logger) config.HandlerFactory {
	logger = logging.OrDiscard(logger)

	return func(rc config.RouteConfig, vc config.VersionConfig) (http.Handler, error) {
		if vc.Upstream == "" {
			return nil, ErrNoUpstream
		}
		target, err := url.Parse(vc.Upstream)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidUpstream, vc.Upstream)
		}

		formatter := problem.NewRFC9457("")
		return &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
				if v := negotiate.VersionFromContext(pr.In.Context()); !v.IsZero() {
					pr.Out.Header.Set(negotiate.DefaultVersionHeader, v.String())
				}
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				logging.WithTrace(r.Context(), logger).Error("upstream request failed",
					"route", rc.Method+" "+rc.Pattern,
					"api.version", vc.Version.String(),
					"upstream", vc.Upstream,
					"error", err,
				)
				perr := problem.WithStatus(fmt.Errorf("%w: %w", errUpstream, err), http.StatusBadGateway)
				_ = problem.Write(w, formatter.Format(r, perr))
			},
		}, nil
	}
}
