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

package types

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// And combines two filters into one joined with AND. A nil receiver or
// argument yields the other operand unchanged.
func (f *QueryFilter) And(other *QueryFilter) *QueryFilter {
	if f == nil {
		return other
	}
	if other == nil {
		return f
	}
	return &QueryFilter{
		Schema: "(" + f.Schema + ") AND (" + other.Schema + ")",
		Args:   append(append([]interface{}{}, f.Args...), other.Args...),
	}
}

// Or combines two filters into one joined with OR.
func (f *QueryFilter) Or(other *QueryFilter) *QueryFilter {
	if f == nil {
		return other
	}
	if other == nil {
		return f
	}
	return &QueryFilter{
		Schema: "(" + f.Schema + ") OR (" + other.Schema + ")",
		Args:   append(append([]interface{}{}, f.Args...), other.Args...),
	}
}
