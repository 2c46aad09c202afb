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

package repository

import (
	"context"

	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
)

type baseRepository[T any] struct {
	session Session
}

// New returns a generic repository for T staging its writes into session.
// *T must implement models.Entity (every model embeds models.AuditFields).
func New[T any](session Session) Repository[T] {
	return &baseRepository[T]{session: session}
}

func (r *baseRepository[T]) entity(e *T) (models.Entity, error) {
	if e == nil {
		return nil, types.InvalidArgumentf("entity must not be nil")
	}
	ent, ok := any(e).(models.Entity)
	if !ok {
		return nil, types.InvalidArgumentf("type %T does not embed audit fields", e)
	}
	return ent, nil
}

// prepare normalizes and validates an entity before it is staged.
func (r *baseRepository[T]) prepare(e *T) error {
	if n, ok := any(e).(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if v, ok := any(e).(models.Validator); ok {
		return v.Validate()
	}
	return nil
}

func (r *baseRepository[T]) GetAll() *query.Builder[T] {
	return query.All[T](r.session.DB())
}

func (r *baseRepository[T]) GetByID(ctx context.Context, id int64, relations ...string) (*T, bool, error) {
	// PK lookup, never a table scan. The alias qualifier keeps the predicate
	// unambiguous when relation joins pull in a second id column.
	b := query.All[T](r.session.DB()).Where("?TableAlias.id = ?", id)
	if len(relations) > 0 {
		b = b.Relations(relations...)
	}
	return b.ScanOne(ctx)
}

func (r *baseRepository[T]) Exists(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	return query.All[T](r.session.DB()).WhereFilter(filter).Exists(ctx)
}

func (r *baseRepository[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	b := query.All[T](r.session.DB())
	if filter != nil {
		b = b.WhereFilter(filter)
	}
	return b.Count(ctx)
}

func (r *baseRepository[T]) GetPaged(ctx context.Context, page, pageSize int, orderKey string, ascending bool) (*types.Pagination[T], error) {
	request := types.NewDefaultPageRequest(page, pageSize)
	if err := request.Validate(); err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[T](page, pageSize)
	total, err := query.All[T](r.session.DB()).Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := query.All[T](r.session.DB()).
		OrderedPage(orderKey, ascending, request.GetOffset(), pageSize).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (r *baseRepository[T]) GetAdvanced(ctx context.Context, filter *types.QueryFilter, orderKey string, ascending bool, skip, take int, relations ...string) ([]*T, error) {
	b := query.All[T](r.session.DB())
	if filter != nil {
		b = b.WhereFilter(filter)
	}
	if len(relations) > 0 {
		b = b.Relations(relations...)
	}
	if orderKey != "" {
		b = b.OrderBy(orderKey, ascending)
	}
	if skip >= 0 {
		b = b.Skip(skip)
	}
	if take > 0 {
		b = b.Take(take)
	}
	return b.Scan(ctx)
}

func (r *baseRepository[T]) Add(_ context.Context, e *T) (*T, error) {
	ent, err := r.entity(e)
	if err != nil {
		return nil, err
	}
	if err := r.prepare(e); err != nil {
		return nil, err
	}
	// Identity and version are always server-assigned.
	ent.SetID(0)
	ent.SetVersion(0)
	r.session.StageInsert(ent)
	return e, nil
}

func (r *baseRepository[T]) Update(_ context.Context, e *T) error {
	ent, err := r.entity(e)
	if err != nil {
		return err
	}
	if ent.GetID() <= 0 {
		return types.InvalidArgumentf("cannot update entity without identity")
	}
	if err := r.prepare(e); err != nil {
		return err
	}
	r.session.StageUpdate(ent)
	return nil
}

func (r *baseRepository[T]) Delete(_ context.Context, e *T) error {
	ent, err := r.entity(e)
	if err != nil {
		return err
	}
	r.session.StageDelete(ent)
	return nil
}

func (r *baseRepository[T]) DeleteByID(ctx context.Context, id int64) (bool, error) {
	existing, found, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	ent, err := r.entity(existing)
	if err != nil {
		return false, err
	}
	r.session.StageDelete(ent)
	return true, nil
}
