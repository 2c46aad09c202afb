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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
)

// Session is the staging area shared by every repository inside one unit of
// work. Repositories read through DB() and never write to the database
// directly: mutations are recorded as staged changes and flushed atomically
// by the owning unit of work.
type Session interface {
	// DB returns the handle reads run against. Inside an explicit
	// transaction this is the transaction, otherwise the pooled connection.
	DB() bun.IDB

	// Dialect identifies the SQL dialect of the backing store.
	Dialect() schema.Dialect

	StageInsert(entity models.Entity)
	StageUpdate(entity models.Entity)
	StageDelete(entity models.Entity)
}

// ReadRepository defines the query side shared by all entity types.
type ReadRepository[T any] interface {
	// GetAll returns an unexecuted builder over every row of T.
	GetAll() *query.Builder[T]

	// GetByID returns a single entity by primary key, with optional eager
	// relation loading. Absence is reported through the boolean.
	GetByID(ctx context.Context, id int64, relations ...string) (*T, bool, error)

	// Exists reports whether any row matches the filter.
	Exists(ctx context.Context, filter *types.QueryFilter) (bool, error)

	// Count returns the number of rows matching the filter (nil counts all).
	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	// GetPaged materializes exactly one page ordered by orderKey.
	GetPaged(ctx context.Context, page, pageSize int, orderKey string, ascending bool) (*types.Pagination[T], error)

	// GetAdvanced is the fully general composition: optional filter,
	// optional ordering, optional skip/take (skip < 0 and take < 1 mean
	// unset), optional eager relations.
	GetAdvanced(ctx context.Context, filter *types.QueryFilter, orderKey string, ascending bool, skip, take int, relations ...string) ([]*T, error)
}

// WriteRepository defines the staged mutation side. Nothing is committed
// until the owning unit of work saves.
type WriteRepository[T any] interface {
	// Add stages an insert. The entity's identity and audit fields are
	// reset; the final identity is assigned when the unit of work saves.
	Add(ctx context.Context, entity *T) (*T, error)

	// Update stages a full-row replace keyed by the entity's identity,
	// guarded by its optimistic concurrency version.
	Update(ctx context.Context, entity *T) error

	// Delete stages removal of the given entity.
	Delete(ctx context.Context, entity *T) error

	// DeleteByID looks the row up first and returns false without staging
	// anything when it does not exist.
	DeleteByID(ctx context.Context, id int64) (bool, error)
}

// Repository combines the read and staged-write sides for one entity type.
type Repository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
}
