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

package query

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"

	"github.com/northwind-go/northwind/types"
)

// Builder composes an unexecuted query over entity type T. Combinators record
// filter, relation, order, and paging clauses without touching the database;
// nothing runs until one of the execution methods is called. The first
// composition error is latched and returned by every later execution, the
// same way Bun's own query builders defer errors.
type Builder[T any] struct {
	db        bun.IDB
	filters   []*types.QueryFilter
	relations []string
	columns   []string
	orders    []string
	offset    int
	limit     int
	hasOffset bool
	hasLimit  bool
	err       error
}

// All returns an unfiltered, unexecuted builder over every row of T.
// Selects never track entities for mutation; results are plain values.
func All[T any](db bun.IDB) *Builder[T] {
	return &Builder[T]{db: db, offset: -1, limit: -1}
}

func (b *Builder[T]) fail(err error) *Builder[T] {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Err returns the first composition error, if any.
func (b *Builder[T]) Err() error { return b.err }

// Where restricts the query by a WHERE fragment with placeholder args.
// A blank fragment fails with ErrInvalidArgument.
func (b *Builder[T]) Where(schema string, args ...interface{}) *Builder[T] {
	if strings.TrimSpace(schema) == "" {
		return b.fail(types.InvalidArgumentf("query predicate must not be empty"))
	}
	b.filters = append(b.filters, types.NewQueryFilter(schema, args...))
	return b
}

// WhereFilter restricts the query by a prebuilt filter.
// A nil filter fails with ErrInvalidArgument.
func (b *Builder[T]) WhereFilter(filter *types.QueryFilter) *Builder[T] {
	if filter == nil {
		return b.fail(types.InvalidArgumentf("query predicate must not be nil"))
	}
	return b.Where(filter.Schema, filter.Args...)
}

// Relations eagerly loads the named relation paths alongside the primary
// rows, as a single composed query per relation rather than one lookup per
// row. Paths use Bun relation syntax, e.g. "Items" or "Customer.Orders".
func (b *Builder[T]) Relations(paths ...string) *Builder[T] {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return b.fail(types.InvalidArgumentf("relation path must not be empty"))
		}
		b.relations = append(b.relations, p)
	}
	return b
}

// WhereWithRelations composes WhereFilter and Relations.
func (b *Builder[T]) WhereWithRelations(filter *types.QueryFilter, paths ...string) *Builder[T] {
	return b.WhereFilter(filter).Relations(paths...)
}

// Columns narrows the selected columns (field projection). The primary key
// is always included so scanned entities stay identifiable.
func (b *Builder[T]) Columns(cols ...string) *Builder[T] {
	hasID := false
	for _, c := range cols {
		if strings.TrimSpace(c) == "" {
			return b.fail(types.InvalidArgumentf("projection column must not be empty"))
		}
		if c == "id" {
			hasID = true
		}
		b.columns = append(b.columns, c)
	}
	if len(cols) > 0 && !hasID {
		b.columns = append(b.columns, "id")
	}
	return b
}

// OrderBy appends a deterministic ordering on the given column. Bare column
// names are qualified with the model's table alias so the ordering stays
// unambiguous when a relation join brings a second table with the same
// column into the query.
func (b *Builder[T]) OrderBy(column string, ascending bool) *Builder[T] {
	if strings.TrimSpace(column) == "" {
		return b.fail(types.InvalidArgumentf("order key must not be empty"))
	}
	if bareColumn(column) {
		column = "?TableAlias." + column
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	b.orders = append(b.orders, column+" "+direction)
	return b
}

// bareColumn reports whether s is a plain column name with no qualifier,
// expression, or placeholder of its own.
func bareColumn(s string) bool {
	return !strings.ContainsAny(s, ".(? ")
}

// Skip sets the row offset. Negative values fail with ErrInvalidArgument.
func (b *Builder[T]) Skip(n int) *Builder[T] {
	if n < 0 {
		return b.fail(types.InvalidArgumentf("skip must be >= 0, got %d", n))
	}
	b.offset = n
	b.hasOffset = true
	return b
}

// Take limits the number of rows. Values below 1 fail with ErrInvalidArgument.
func (b *Builder[T]) Take(n int) *Builder[T] {
	if n < 1 {
		return b.fail(types.InvalidArgumentf("take must be >= 1, got %d", n))
	}
	b.limit = n
	b.hasLimit = true
	return b
}

// OrderedPage fully composes the query: relation includes, ordering by
// orderKey, and optional skip/take. Pass skip < 0 or take < 1 through Skip and
// Take directly when they should be validated; here negative skip and
// non-positive take mean "not set".
func (b *Builder[T]) OrderedPage(orderKey string, ascending bool, skip, take int, relations ...string) *Builder[T] {
	if len(relations) > 0 {
		b = b.Relations(relations...)
	}
	b = b.OrderBy(orderKey, ascending)
	if skip >= 0 {
		b = b.Skip(skip)
	}
	if take > 0 {
		b = b.Take(take)
	}
	return b
}

// apply builds the Bun select query from the recorded clauses.
func (b *Builder[T]) apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, f := range b.filters {
		q = q.Where(f.Schema, f.Args...)
	}
	for _, rel := range b.relations {
		q = q.Relation(rel)
	}
	if len(b.columns) > 0 {
		q = q.Column(b.columns...)
	}
	for _, o := range b.orders {
		q = q.OrderExpr(o)
	}
	if b.hasOffset {
		q = q.Offset(b.offset)
	}
	if b.hasLimit {
		q = q.Limit(b.limit)
	}
	return q
}

// Scan executes the composed query and materializes all matching rows.
func (b *Builder[T]) Scan(ctx context.Context) ([]*T, error) {
	if b.err != nil {
		return nil, b.err
	}
	entities := make([]*T, 0)
	q := b.apply(b.db.NewSelect().Model(&entities))
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// ScanOne executes the composed query limited to a single row. Absence is
// reported through the boolean, never as an error.
func (b *Builder[T]) ScanOne(ctx context.Context) (*T, bool, error) {
	if b.err != nil {
		return nil, false, b.err
	}
	var entity T
	q := b.apply(b.db.NewSelect().Model(&entity)).Limit(1)
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &entity, true, nil
}

// Count executes an immediate COUNT over the composed filters.
func (b *Builder[T]) Count(ctx context.Context) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	var entity T
	q := b.db.NewSelect().Model(&entity)
	for _, f := range b.filters {
		q = q.Where(f.Schema, f.Args...)
	}
	return q.Count(ctx)
}

// Exists executes an immediate existence check over the composed filters.
func (b *Builder[T]) Exists(ctx context.Context) (bool, error) {
	if b.err != nil {
		return false, b.err
	}
	var entity T
	q := b.db.NewSelect().Model(&entity)
	for _, f := range b.filters {
		q = q.Where(f.Schema, f.Args...)
	}
	return q.Exists(ctx)
}
