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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northwind-go/northwind/types"
)

func TestParseFilter(t *testing.T) {
	m := ProductMapping()

	cases := []struct {
		name   string
		input  string
		schema string
		args   []interface{}
	}{
		{
			name:   "string equality",
			input:  "name eq 'Laptop'",
			schema: "?TableAlias.name = ?",
			args:   []interface{}{"Laptop"},
		},
		{
			name:   "integer comparison",
			input:  "id gt 10",
			schema: "?TableAlias.id > ?",
			args:   []interface{}{int64(10)},
		},
		{
			name:   "decimal comparison",
			input:  "price le 999.99",
			schema: "?TableAlias.price <= ?",
			args:   []interface{}{999.99},
		},
		{
			name:   "not equal",
			input:  "name ne 'Mouse'",
			schema: "?TableAlias.name <> ?",
			args:   []interface{}{"Mouse"},
		},
		{
			name:   "and conjunction",
			input:  "price ge 10 and price lt 100",
			schema: "(?TableAlias.price >= ?) AND (?TableAlias.price < ?)",
			args:   []interface{}{int64(10), int64(100)},
		},
		{
			name:   "or disjunction",
			input:  "name eq 'Laptop' or name eq 'Mouse'",
			schema: "(?TableAlias.name = ?) OR (?TableAlias.name = ?)",
			args:   []interface{}{"Laptop", "Mouse"},
		},
		{
			name:   "and binds tighter than or",
			input:  "name eq 'Laptop' or name eq 'Mouse' and price lt 50",
			schema: "(?TableAlias.name = ?) OR ((?TableAlias.name = ?) AND (?TableAlias.price < ?))",
			args:   []interface{}{"Laptop", "Mouse", int64(50)},
		},
		{
			name:   "parentheses override precedence",
			input:  "(name eq 'Laptop' or name eq 'Mouse') and price lt 50",
			schema: "((?TableAlias.name = ?) OR (?TableAlias.name = ?)) AND (?TableAlias.price < ?)",
			args:   []interface{}{"Laptop", "Mouse", int64(50)},
		},
		{
			name:   "contains",
			input:  "contains(name,'top')",
			schema: `?TableAlias.name LIKE ? ESCAPE '\'`,
			args:   []interface{}{"%top%"},
		},
		{
			name:   "startswith",
			input:  "startswith(name,'Lap')",
			schema: `?TableAlias.name LIKE ? ESCAPE '\'`,
			args:   []interface{}{"Lap%"},
		},
		{
			name:   "like metacharacters escaped",
			input:  "contains(name,'50%_off')",
			schema: `?TableAlias.name LIKE ? ESCAPE '\'`,
			args:   []interface{}{`%50\%\_off%`},
		},
		{
			name:   "doubled quote escape",
			input:  "name eq 'O''Brien'",
			schema: "?TableAlias.name = ?",
			args:   []interface{}{"O'Brien"},
		},
		{
			name:   "negative number",
			input:  "price gt -5",
			schema: "?TableAlias.price > ?",
			args:   []interface{}{int64(-5)},
		},
		{
			name:   "case-insensitive keywords",
			input:  "name EQ 'Laptop' AND price LT 50",
			schema: "(?TableAlias.name = ?) AND (?TableAlias.price < ?)",
			args:   []interface{}{"Laptop", int64(50)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := ParseFilter(tc.input, m)
			require.NoError(t, err)
			assert.Equal(t, tc.schema, filter.Schema)
			assert.Equal(t, tc.args, filter.Args)
		})
	}
}

func TestParseFilterNull(t *testing.T) {
	m := ProductMapping()

	filter, err := ParseFilter("name eq null", m)
	require.NoError(t, err)
	assert.Equal(t, "?TableAlias.name IS NULL", filter.Schema)
	assert.Empty(t, filter.Args)

	filter, err = ParseFilter("name ne null", m)
	require.NoError(t, err)
	assert.Equal(t, "?TableAlias.name IS NOT NULL", filter.Schema)

	_, err = ParseFilter("name gt null", m)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestParseFilterRejectsMalformedInput(t *testing.T) {
	m := ProductMapping()

	inputs := []string{
		"",
		"name",
		"name eq",
		"name like 'x'",
		"secret eq 1",
		"contains(secret,'x')",
		"contains(name)",
		"contains(name,5)",
		"(name eq 'x'",
		"name eq 'x' and",
		"name eq 'unterminated",
		"name eq 'x' garbage",
		"name eq @x",
	}
	for _, input := range inputs {
		_, err := ParseFilter(input, m)
		assert.ErrorIs(t, err, types.ErrInvalidArgument, "input %q", input)
	}
}

func TestParseFilterFieldNamesAreCaseInsensitive(t *testing.T) {
	filter, err := ParseFilter("Price gt 10", ProductMapping())
	require.NoError(t, err)
	assert.Equal(t, "?TableAlias.price > ?", filter.Schema)
}
