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

package unitofwork

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/northwind-go/northwind/database"
	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/repository"
	"github.com/northwind-go/northwind/types"
	"github.com/northwind-go/northwind/utils"
)

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
	changeDelete
)

type change struct {
	kind   changeKind
	entity models.Entity
}

// UnitOfWork owns one persistence session for one logical request. All
// repositories obtained from the same unit share its pending-change set, so a
// single Save flushes every staged add, update, and delete atomically.
//
// A unit is not safe for concurrent use; acquire one per logical operation
// and Close it before returning.
type UnitOfWork struct {
	id       string
	db       *bun.DB
	tx       *bun.Tx
	txFailed bool
	pending  []change
	repos    map[string]interface{}
	disposed bool
	stageErr error
	nowFunc  func() time.Time
	log      *logrus.Entry
}

// New acquires a unit of work over the shared connection pool.
func New(db *bun.DB) *UnitOfWork {
	id := uuid.NewString()
	return &UnitOfWork{
		id:      id,
		db:      db,
		repos:   make(map[string]interface{}),
		nowFunc: time.Now,
		log:     utils.NewLogger("UNITOFWORK").WithField("unit", id),
	}
}

// ID returns the unit's correlation id used in log output.
func (u *UnitOfWork) ID() string { return u.id }

// DB implements repository.Session. Reads run against the open transaction
// when one is active, the pooled connection otherwise.
func (u *UnitOfWork) DB() bun.IDB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// Dialect implements repository.Session.
func (u *UnitOfWork) Dialect() schema.Dialect { return u.db.Dialect() }

// StageInsert implements repository.Session.
func (u *UnitOfWork) StageInsert(entity models.Entity) { u.stage(changeInsert, entity) }

// StageUpdate implements repository.Session.
func (u *UnitOfWork) StageUpdate(entity models.Entity) { u.stage(changeUpdate, entity) }

// StageDelete implements repository.Session.
func (u *UnitOfWork) StageDelete(entity models.Entity) { u.stage(changeDelete, entity) }

func (u *UnitOfWork) stage(kind changeKind, entity models.Entity) {
	if u.disposed {
		if u.stageErr == nil {
			u.stageErr = types.ErrInvalidOperation
		}
		return
	}
	u.pending = append(u.pending, change{kind: kind, entity: entity})
}

// Pending returns the number of staged, unsaved changes.
func (u *UnitOfWork) Pending() int { return len(u.pending) }

// RepositoryFor returns the unit's repository for T, creating it on first
// access. Within one unit there is exactly one repository instance per entity
// type, so every repository shares the same pending-change set. Entity types
// with specialized repositories get those; any other type gets the generic
// implementation.
func RepositoryFor[T any](u *UnitOfWork) repository.Repository[T] {
	var zero T
	key := reflect.TypeOf(zero).String()
	if cached, ok := u.repos[key]; ok {
		return cached.(repository.Repository[T])
	}
	var repo interface{}
	switch any(zero).(type) {
	case models.Customer:
		repo = repository.NewCustomerRepository(u)
	case models.Product:
		repo = repository.NewProductRepository(u)
	case models.Order:
		repo = repository.NewOrderRepository(u)
	default:
		repo = repository.New[T](u)
	}
	u.repos[key] = repo
	return repo.(repository.Repository[T])
}

// Customers returns the unit's customer repository.
func (u *UnitOfWork) Customers() *repository.CustomerRepository {
	return RepositoryFor[models.Customer](u).(*repository.CustomerRepository)
}

// Products returns the unit's product repository.
func (u *UnitOfWork) Products() *repository.ProductRepository {
	return RepositoryFor[models.Product](u).(*repository.ProductRepository)
}

// Orders returns the unit's order repository.
func (u *UnitOfWork) Orders() *repository.OrderRepository {
	return RepositoryFor[models.Order](u).(*repository.OrderRepository)
}

// OrderItems returns the unit's order item repository.
func (u *UnitOfWork) OrderItems() repository.Repository[models.OrderItem] {
	return RepositoryFor[models.OrderItem](u)
}

// Save flushes all staged changes as one atomic operation, in staging order.
// Inside an explicit transaction the flush joins it; otherwise Save wraps the
// flush in its own transaction. A write-write conflict detected through the
// version check surfaces as ErrConcurrencyConflict and the staged set is kept
// so the caller can reload and retry; on success the staged set is cleared.
//
// A failed Save inside an explicit transaction leaves its partial writes in
// the open transaction, so the unit becomes rollback-only: further Save and
// Commit calls fail with ErrInvalidOperation until Rollback.
func (u *UnitOfWork) Save(ctx context.Context) error {
	if u.disposed {
		return types.ErrInvalidOperation
	}
	if u.stageErr != nil {
		return u.stageErr
	}
	if u.txFailed {
		return fmt.Errorf("%w: transaction is rollback-only after a failed save", types.ErrInvalidOperation)
	}
	if len(u.pending) == 0 {
		return nil
	}

	var err error
	if u.tx != nil {
		err = u.flush(ctx, *u.tx)
		if err != nil {
			u.txFailed = true
		}
	} else {
		err = u.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return u.flush(ctx, tx)
		})
	}
	if err != nil {
		return u.translate(err)
	}
	u.pending = u.pending[:0]
	return nil
}

// updateSnapshot remembers an entity's version and timestamp from before its
// update was applied, so a failed flush can undo the in-memory bumps.
type updateSnapshot struct {
	entity    models.Entity
	version   int64
	updatedAt time.Time
}

func (u *UnitOfWork) flush(ctx context.Context, idb bun.IDB) error {
	now := u.nowFunc().UTC()
	var touched []updateSnapshot
	for _, c := range u.pending {
		var err error
		switch c.kind {
		case changeInsert:
			err = u.insertEntity(ctx, idb, c.entity, now)
		case changeUpdate:
			touched = append(touched, updateSnapshot{
				entity:    c.entity,
				version:   c.entity.GetVersion(),
				updatedAt: c.entity.GetUpdatedAt(),
			})
			err = u.updateEntity(ctx, idb, c.entity, now)
		case changeDelete:
			err = u.deleteEntity(ctx, idb, c.entity)
		}
		if err != nil {
			// The transaction rolls back, so every version and timestamp
			// bumped in this flush must be undone too or a retry would
			// conflict against versions that were never persisted.
			for _, s := range touched {
				s.entity.SetVersion(s.version)
				s.entity.TouchUpdated(s.updatedAt)
			}
			return err
		}
	}
	return nil
}

func (u *UnitOfWork) insertEntity(ctx context.Context, idb bun.IDB, ent models.Entity, now time.Time) error {
	ent.SetID(0)
	ent.SetVersion(1)
	ent.TouchCreated(now)
	if _, err := idb.NewInsert().Model(ent).Exec(ctx); err != nil {
		return err
	}
	if agg, ok := ent.(models.Aggregate); ok {
		agg.BindChildren()
		for _, child := range agg.Children() {
			if err := u.insertEntity(ctx, idb, child, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *UnitOfWork) updateEntity(ctx context.Context, idb bun.IDB, ent models.Entity, now time.Time) error {
	previous := ent.GetVersion()
	ent.SetVersion(previous + 1)
	ent.TouchUpdated(now)
	res, err := idb.NewUpdate().
		Model(ent).
		ExcludeColumn("created_at").
		Where("id = ?", ent.GetID()).
		Where("version = ?", previous).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return types.ErrConcurrencyConflict
	}
	return nil
}

func (u *UnitOfWork) deleteEntity(ctx context.Context, idb bun.IDB, ent models.Entity) error {
	// Row absence is tolerated; delete-by-id already reported it.
	_, err := idb.NewDelete().Model(ent).WherePK().Exec(ctx)
	return err
}

// translate maps a flush failure into the error taxonomy exactly once, at
// this boundary. Taxonomy errors pass through; anything else becomes a
// PersistenceError with the cause attached for diagnostics only.
func (u *UnitOfWork) translate(err error) error {
	if errors.Is(err, types.ErrConcurrencyConflict) ||
		errors.Is(err, types.ErrInvalidArgument) ||
		errors.Is(err, types.ErrInvalidOperation) {
		return err
	}
	if classified, kind := database.IsSqlError(err); classified {
		u.log.WithField("sql_error", int(kind)).WithError(err).Warn("save failed with classified SQL error")
	} else {
		u.log.WithError(err).Warn("save failed")
	}
	return types.NewPersistenceError("save", err)
}

// BeginTransaction opens an explicit transaction boundary spanning multiple
// Save calls. Opening a second transaction while one is active fails with
// ErrInvalidOperation.
func (u *UnitOfWork) BeginTransaction(ctx context.Context, opts *sql.TxOptions) error {
	if u.disposed {
		return types.ErrInvalidOperation
	}
	if u.tx != nil {
		return fmt.Errorf("%w: transaction already open", types.ErrInvalidOperation)
	}
	tx, err := u.db.BeginTx(ctx, opts)
	if err != nil {
		return types.NewPersistenceError("begin transaction", err)
	}
	u.tx = &tx
	return nil
}

// Commit commits the explicit transaction opened by BeginTransaction. When a
// Save inside the transaction failed, committing the partial flush is refused
// and Rollback is the only way out.
func (u *UnitOfWork) Commit() error {
	if u.disposed || u.tx == nil {
		return types.ErrInvalidOperation
	}
	if u.txFailed {
		return fmt.Errorf("%w: transaction is rollback-only after a failed save", types.ErrInvalidOperation)
	}
	err := u.tx.Commit()
	u.tx = nil
	if err != nil {
		return types.NewPersistenceError("commit", err)
	}
	return nil
}

// Rollback aborts the explicit transaction and drops all staged changes.
func (u *UnitOfWork) Rollback() error {
	if u.disposed || u.tx == nil {
		return types.ErrInvalidOperation
	}
	err := u.tx.Rollback()
	u.tx = nil
	u.txFailed = false
	u.DetachAll()
	if err != nil {
		return types.NewPersistenceError("rollback", err)
	}
	return nil
}

// RunInTransaction begins a transaction, runs operation, commits on success,
// and rolls back on any error so no partial multi-step write survives.
func (u *UnitOfWork) RunInTransaction(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := u.BeginTransaction(ctx, nil); err != nil {
		return err
	}
	if err := operation(ctx); err != nil {
		_ = u.Rollback()
		return err
	}
	return u.Commit()
}

// DetachAll drops every staged change without committing, resetting state
// between logical operations sharing one session.
func (u *UnitOfWork) DetachAll() {
	u.pending = u.pending[:0]
}

// Close disposes the unit. Any open explicit transaction is rolled back and
// no operation is valid afterwards. The shared connection pool stays open; it
// belongs to the process, not to this unit.
func (u *UnitOfWork) Close() error {
	if u.disposed {
		return nil
	}
	u.disposed = true
	u.pending = nil
	if u.tx != nil {
		err := u.tx.Rollback()
		u.tx = nil
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			return types.NewPersistenceError("close", err)
		}
	}
	return nil
}
