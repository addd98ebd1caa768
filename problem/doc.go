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

// Package problem renders errors as HTTP error responses.
//
// Two formatters are provided:
//   - RFC9457: RFC 9457 Problem Details (application/problem+json)
//   - Simple: a flat JSON object (application/json)
//
// Errors steer the response through optional interfaces:
//
//   - ErrorType: declare the HTTP status code
//   - ErrorCode: provide a machine-readable code
//   - ErrorDetails: provide structured details
//   - ErrorExtensions: add top-level members to the body
//
// API version resolution failures implement all of these, so a negotiator
// renders them without any mapping:
//
//	formatter := problem.NewRFC9457("https://api.example.com/problems")
//	resp := formatter.Format(req, err)
//	_ = problem.Write(w, resp)
//
// produces
//
//	HTTP/1.1 400 Bad Request
//	Content-Type: application/problem+json; charset=utf-8
//
//	{
//	  "type": "https://api.example.com/problems/UnsupportedApiVersion",
//	  "title": "Bad Request",
//	  "status": 400,
//	  "detail": "the API version \"3\" from header:X-Api-Version is not supported",
//	  "instance": "/users",
//	  "code": "UnsupportedApiVersion",
//	  "requestedVersion": "3",
//	  "supportedVersions": ["1", "2"],
//	  "error_id": "8d0c5c1e-7f0a-4a55-9a57-0f4f1b7c6a59"
//	}
package problem
