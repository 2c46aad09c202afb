/*
 * Copyright 2025 northwind-go.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package odata

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/northwind-go/northwind/types"
)

// Options carries the recognized query parameters of one request. String
// fields hold the raw, unparsed client input; Apply interprets them against
// an entity mapping and the configured limits.
type Options struct {
	Filter  string
	OrderBy string
	Select  string
	Expand  string
	Top     *int
	Skip    *int
	Count   bool
}

// Limits bounds what a single request may ask for. Requests exceeding a
// limit are rejected before anything executes.
type Limits struct {
	MaxTop           int
	MaxExpandDepth   int
	MaxOrderByFields int
}

// DefaultLimits returns the standard request bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxTop:           100,
		MaxExpandDepth:   3,
		MaxOrderByFields: 5,
	}
}

// ParseValues extracts the recognized query parameters from values. Both
// plain names ("filter") and dollar-prefixed OData names ("$filter") are
// accepted. Unparsable numeric or boolean values fail with
// ErrInvalidArgument; unrecognized parameters are ignored.
func ParseValues(values url.Values) (Options, error) {
	opts := Options{}

	get := func(name string) string {
		if v := values.Get(name); v != "" {
			return v
		}
		return values.Get("$" + name)
	}

	opts.Filter = get("filter")
	opts.OrderBy = get("orderby")
	opts.Select = get("select")
	opts.Expand = get("expand")

	if raw := get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, types.InvalidArgumentf("top must be an integer, got %q", raw)
		}
		opts.Top = &n
	}
	if raw := get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, types.InvalidArgumentf("skip must be an integer, got %q", raw)
		}
		opts.Skip = &n
	}
	if raw := get("count"); raw != "" {
		switch strings.ToLower(raw) {
		case "true":
			opts.Count = true
		case "false":
			opts.Count = false
		default:
			return opts, types.InvalidArgumentf("count must be true or false, got %q", raw)
		}
	}

	return opts, nil
}
