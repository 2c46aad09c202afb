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
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
)

// Result holds the outcome of an interpreted query. Count is non-nil only
// when the request asked for it, and reflects the filtered total before
// top and skip were applied.
type Result[T any] struct {
	Items []*T
	Count *int
}

// Apply interprets opts against the entity mapping and composes the result
// onto builder. Every option is validated against limits before anything
// touches the builder, so an over-limit or malformed request fails without
// executing a query.
func Apply[T any](builder *query.Builder[T], opts Options, limits Limits, m Mapping) (*query.Builder[T], error) {
	if err := validate(opts, limits, m); err != nil {
		return nil, err
	}

	if opts.Filter != "" {
		filter, err := ParseFilter(opts.Filter, m)
		if err != nil {
			return nil, err
		}
		builder = builder.WhereFilter(filter)
	}

	for _, field := range splitList(opts.OrderBy) {
		column, ascending, err := parseOrderField(field, m)
		if err != nil {
			return nil, err
		}
		builder = builder.OrderBy(column, ascending)
	}

	if opts.Select != "" {
		columns, err := resolveColumns(opts.Select, m)
		if err != nil {
			return nil, err
		}
		builder = builder.Columns(columns...)
	}

	for _, path := range splitList(opts.Expand) {
		relation, ok := m.relation(path)
		if !ok {
			return nil, types.InvalidArgumentf("unknown expand path %q", path)
		}
		builder = builder.Relations(relation)
	}

	if opts.Skip != nil {
		builder = builder.Skip(*opts.Skip)
	}
	if opts.Top != nil {
		builder = builder.Take(*opts.Top)
	}
	return builder, builder.Err()
}

// Execute interprets opts and runs the resulting query against db. When the
// request asks for a count, the filtered total is computed with a second
// query that ignores top and skip.
func Execute[T any](ctx context.Context, db bun.IDB, opts Options, limits Limits, m Mapping) (*Result[T], error) {
	builder, err := Apply(query.All[T](db), opts, limits, m)
	if err != nil {
		return nil, err
	}
	items, err := builder.Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result[T]{Items: items}
	if opts.Count {
		countBuilder := query.All[T](db)
		if opts.Filter != "" {
			filter, err := ParseFilter(opts.Filter, m)
			if err != nil {
				return nil, err
			}
			countBuilder = countBuilder.WhereFilter(filter)
		}
		total, err := countBuilder.Count(ctx)
		if err != nil {
			return nil, err
		}
		result.Count = &total
	}
	return result, nil
}

func validate(opts Options, limits Limits, m Mapping) error {
	if opts.Top != nil {
		if *opts.Top < 1 {
			return types.InvalidArgumentf("top must be at least 1, got %d", *opts.Top)
		}
		if limits.MaxTop > 0 && *opts.Top > limits.MaxTop {
			return types.InvalidArgumentf("top %d exceeds the maximum of %d", *opts.Top, limits.MaxTop)
		}
	}
	if opts.Skip != nil && *opts.Skip < 0 {
		return types.InvalidArgumentf("skip must not be negative, got %d", *opts.Skip)
	}

	orderFields := splitList(opts.OrderBy)
	if limits.MaxOrderByFields > 0 && len(orderFields) > limits.MaxOrderByFields {
		return types.InvalidArgumentf("orderby lists %d fields, the maximum is %d",
			len(orderFields), limits.MaxOrderByFields)
	}

	for _, path := range splitList(opts.Expand) {
		depth := strings.Count(path, "/") + 1
		if limits.MaxExpandDepth > 0 && depth > limits.MaxExpandDepth {
			return types.InvalidArgumentf("expand path %q nests %d levels, the maximum is %d",
				path, depth, limits.MaxExpandDepth)
		}
		if _, ok := m.relation(path); !ok {
			return types.InvalidArgumentf("unknown expand path %q", path)
		}
	}
	return nil
}

// parseOrderField interprets one orderby entry of the form "field" or
// "field asc|desc".
func parseOrderField(field string, m Mapping) (string, bool, error) {
	parts := strings.Fields(field)
	if len(parts) == 0 || len(parts) > 2 {
		return "", false, types.InvalidArgumentf("invalid orderby entry %q", field)
	}
	column, ok := m.column(parts[0])
	if !ok {
		return "", false, types.InvalidArgumentf("unknown orderby field %q", parts[0])
	}
	ascending := true
	if len(parts) == 2 {
		switch strings.ToLower(parts[1]) {
		case "asc":
		case "desc":
			ascending = false
		default:
			return "", false, types.InvalidArgumentf("orderby direction must be asc or desc, got %q", parts[1])
		}
	}
	return column, ascending, nil
}

func resolveColumns(list string, m Mapping) ([]string, error) {
	fields := splitList(list)
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		column, ok := m.column(field)
		if !ok {
			return nil, types.InvalidArgumentf("unknown select field %q", field)
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func splitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
