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

package northwind

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/northwind-go/northwind/database"
	"github.com/northwind-go/northwind/odata"
	"github.com/northwind-go/northwind/types"
	"github.com/northwind-go/northwind/unitofwork"
)

// Service is a convenience facade over the unit of work machinery. Every
// call runs in its own unit of work, so mutations commit (or fail)
// independently. Callers needing several mutations in one atomic save
// should use a UnitOfWork directly.
type Service[T any] interface {
	// Get returns a single entity by its identifier, with optional eager
	// relation loading. Absence is reported through the boolean.
	Get(ctx context.Context, id int64, relations ...string) (*T, bool, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns one page of entities ordered by orderKey.
	Page(ctx context.Context, page, pageSize int, orderKey string, ascending bool) (*types.Pagination[T], error)

	// Query interprets OData-style options against the entity mapping and
	// executes the resulting query.
	Query(ctx context.Context, opts odata.Options) (*odata.Result[T], error)

	// Create inserts one or more new entities.
	Create(ctx context.Context, entities ...*T) error

	// Update replaces an existing entity, guarded by its row version.
	Update(ctx context.Context, entity *T) error

	// Delete removes an entity by its identifier. It reports false without
	// error when no such entity exists.
	Delete(ctx context.Context, id int64) (bool, error)
}

type baseServiceImpl[T any] struct {
	db      *bun.DB
	mapping odata.Mapping
	limits  odata.Limits
	once    sync.Once
}

// NewService returns a Service backed by the global database connection.
// The mapping bounds what Query may reference.
func NewService[T any](mapping odata.Mapping) Service[T] {
	return &baseServiceImpl[T]{mapping: mapping, limits: odata.DefaultLimits()}
}

// NewServiceWithDB returns a Service bound to an explicit connection.
func NewServiceWithDB[T any](db *bun.DB, mapping odata.Mapping) Service[T] {
	return &baseServiceImpl[T]{db: db, mapping: mapping, limits: odata.DefaultLimits()}
}

func (s *baseServiceImpl[T]) database() *bun.DB {
	s.once.Do(func() {
		if s.db == nil {
			s.db = database.GetDB()
		}
	})
	return s.db
}

func (s *baseServiceImpl[T]) unit() *unitofwork.UnitOfWork {
	return unitofwork.New(s.database())
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id int64, relations ...string) (*T, bool, error) {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	return unitofwork.RepositoryFor[T](uow).GetByID(ctx, id, relations...)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	return unitofwork.RepositoryFor[T](uow).GetAll().Scan(ctx)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	return unitofwork.RepositoryFor[T](uow).GetAll().WhereFilter(filter).Scan(ctx)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page, pageSize int, orderKey string, ascending bool) (*types.Pagination[T], error) {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	return unitofwork.RepositoryFor[T](uow).GetPaged(ctx, page, pageSize, orderKey, ascending)
}

func (s *baseServiceImpl[T]) Query(ctx context.Context, opts odata.Options) (*odata.Result[T], error) {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	return odata.Execute[T](ctx, uow.DB(), opts, s.limits, s.mapping)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, entities ...*T) error {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	repo := unitofwork.RepositoryFor[T](uow)
	for _, entity := range entities {
		if _, err := repo.Add(ctx, entity); err != nil {
			return err
		}
	}
	return uow.Save(ctx)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, entity *T) error {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	if err := unitofwork.RepositoryFor[T](uow).Update(ctx, entity); err != nil {
		return err
	}
	return uow.Save(ctx)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id int64) (bool, error) {
	uow := s.unit()
	defer func() { _ = uow.Close() }()
	found, err := unitofwork.RepositoryFor[T](uow).DeleteByID(ctx, id)
	if err != nil || !found {
		return found, err
	}
	return true, uow.Save(ctx)
}
