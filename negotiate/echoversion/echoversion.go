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

// Package echoversion adapts a [negotiate.Negotiator] to echo.
//
// Example:
//
//	e := echo.New()
//	e.Use(echoversion.Middleware(negotiator))
//	e.GET("/users", func(c echo.Context) error {
//	    return c.String(http.StatusOK, "v"+echoversion.Version(c).String())
//	})
package echoversion

import (
	"github.com/labstack/echo/v4"

	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

// ResultKey is the echo context key holding the [resolver.Result].
const ResultKey = "apiversion.result"

// Middleware negotiates the version of every request. Rejected requests
// get the negotiator's problem response and the handler is not called.
func Middleware(n *negotiate.Negotiator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res, err := n.Negotiate(c.Response(), req)
			if err != nil {
				n.Reject(c.Response(), req, err)
				return nil
			}

			c.Set(ResultKey, res)
			c.SetRequest(req.WithContext(negotiate.WithResult(req.Context(), res)))
			return next(c)
		}
	}
}

// Result returns the resolution result stored by [Middleware].
func Result(c echo.Context) (resolver.Result, bool) {
	res, ok := c.Get(ResultKey).(resolver.Result)
	return res, ok
}

// Version returns the resolved version, or the zero Version outside
// [Middleware].
func Version(c echo.Context) version.Version {
	res, _ := Result(c)
	return res.Version
}
