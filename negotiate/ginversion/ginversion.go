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

// Package ginversion adapts a [negotiate.Negotiator] to gin.
//
// Example:
//
//	r := gin.New()
//	r.Use(ginversion.Middleware(negotiator))
//	r.GET("/users", func(c *gin.Context) {
//	    switch ginversion.Version(c).Major() {
//	    case 1:
//	        c.JSON(http.StatusOK, usersV1())
//	    default:
//	        c.JSON(http.StatusOK, usersV2())
//	    }
//	})
package ginversion

import (
	"github.com/gin-gonic/gin"

	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

// ResultKey is the gin context key holding the [resolver.Result].
const ResultKey = "apiversion.result"

// Middleware negotiates the version of every request. Rejected requests
// get the negotiator's problem response and the chain is aborted.
func Middleware(n *negotiate.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := n.Negotiate(c.Writer, c.Request)
		if err != nil {
			n.Reject(c.Writer, c.Request, err)
			c.Abort()
			return
		}

		c.Set(ResultKey, res)
		c.Request = c.Request.WithContext(negotiate.WithResult(c.Request.Context(), res))
		c.Next()
	}
}

// Result returns the resolution result stored by [Middleware].
func Result(c *gin.Context) (resolver.Result, bool) {
	v, ok := c.Get(ResultKey)
	if !ok {
		return resolver.Result{}, false
	}
	res, ok := v.(resolver.Result)
	return res, ok
}

// Version returns the resolved version, or the zero Version outside
// [Middleware].
func Version(c *gin.Context) version.Version {
	res, _ := Result(c)
	return res.Version
}
