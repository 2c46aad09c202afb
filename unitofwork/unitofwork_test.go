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

package unitofwork_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/northwind-go/northwind/database"
	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/types"
	"github.com/northwind-go/northwind/unitofwork"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, database.NewMigrator(db, nil).Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func addProduct(t *testing.T, db *bun.DB, name string, price float64) *models.Product {
	t.Helper()
	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()
	p := &models.Product{Name: name, Price: price}
	_, err := uow.Products().Add(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, uow.Save(context.Background()))
	return p
}

func TestAddSaveRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	p := &models.Product{Name: "Laptop", Price: 999.99}
	p.ID = 777 // client-supplied identities are ignored
	_, err := uow.Products().Add(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, uow.Pending())

	require.NoError(t, uow.Save(ctx))
	assert.Equal(t, 0, uow.Pending())
	assert.NotZero(t, p.ID)
	assert.NotEqual(t, int64(777), p.ID)
	assert.Equal(t, int64(1), p.Version)
	assert.False(t, p.CreatedAt.IsZero())
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))

	loaded, found, err := uow.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Laptop", loaded.Name)
	assert.InDelta(t, 999.99, loaded.Price, 0.0001)
	assert.True(t, loaded.CreatedAt.Equal(loaded.UpdatedAt))
}

func TestSaveWithNothingStagedIsNoOp(t *testing.T) {
	uow := unitofwork.New(newTestDB(t))
	defer func() { _ = uow.Close() }()
	require.NoError(t, uow.Save(context.Background()))
}

func TestAddRejectsInvalidEntityWithoutStaging(t *testing.T) {
	uow := unitofwork.New(newTestDB(t))
	defer func() { _ = uow.Close() }()

	_, err := uow.Products().Add(context.Background(), &models.Product{Name: "", Price: 1})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, 0, uow.Pending())
}

func TestOneRepositoryPerEntityType(t *testing.T) {
	uow := unitofwork.New(newTestDB(t))
	defer func() { _ = uow.Close() }()

	assert.Same(t, uow.Products(), uow.Products())
	assert.Same(t, uow.Customers(), uow.Customers())
	first := unitofwork.RepositoryFor[models.Product](uow)
	second := unitofwork.RepositoryFor[models.Product](uow)
	assert.Equal(t, first, second)
}

func TestUpdatePreservesCreatedAtAndBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := addProduct(t, db, "Laptop", 999.99)
	created := p.CreatedAt

	time.Sleep(5 * time.Millisecond)

	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()
	loaded, found, err := uow.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, found)

	loaded.Price = 899.99
	require.NoError(t, uow.Products().Update(ctx, loaded))
	require.NoError(t, uow.Save(ctx))
	assert.Equal(t, int64(2), loaded.Version)

	reloaded, _, err := uow.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 899.99, reloaded.Price, 0.0001)
	assert.Equal(t, int64(2), reloaded.Version)
	assert.True(t, reloaded.CreatedAt.Equal(created))
	assert.True(t, reloaded.UpdatedAt.After(reloaded.CreatedAt))
}

func TestUpdateWithoutIdentityRejected(t *testing.T) {
	uow := unitofwork.New(newTestDB(t))
	defer func() { _ = uow.Close() }()

	err := uow.Products().Update(context.Background(), &models.Product{Name: "Laptop", Price: 1})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, 0, uow.Pending())
}

func TestConcurrencyConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := addProduct(t, db, "Laptop", 999.99)

	first := unitofwork.New(db)
	defer func() { _ = first.Close() }()
	second := unitofwork.New(db)
	defer func() { _ = second.Close() }()

	mineFirst, _, err := first.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	mineSecond, _, err := second.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)

	mineFirst.Price = 100
	require.NoError(t, first.Products().Update(ctx, mineFirst))
	require.NoError(t, first.Save(ctx))

	mineSecond.Price = 200
	require.NoError(t, second.Products().Update(ctx, mineSecond))
	err = second.Save(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConcurrencyConflict)
	// The failed staged set is kept so the caller can reload and retry.
	assert.Equal(t, 1, second.Pending())
	assert.Equal(t, int64(1), mineSecond.Version)

	// Retry: drop the stale change, reload, reapply.
	second.DetachAll()
	fresh, _, err := second.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Version)
	fresh.Price = 200
	require.NoError(t, second.Products().Update(ctx, fresh))
	require.NoError(t, second.Save(ctx))

	final, _, err := second.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200, final.Price, 0.0001)
	assert.Equal(t, int64(3), final.Version)
}

func TestFailedSaveIsAtomic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := addProduct(t, db, "Laptop", 999.99)

	stale := unitofwork.New(db)
	defer func() { _ = stale.Close() }()
	mine, _, err := stale.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)

	// Another writer bumps the version underneath us.
	other := unitofwork.New(db)
	defer func() { _ = other.Close() }()
	theirs, _, err := other.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	theirs.Price = 50
	require.NoError(t, other.Products().Update(ctx, theirs))
	require.NoError(t, other.Save(ctx))

	// Stage a fresh insert plus the now-stale update: the insert must not
	// survive the failed save.
	_, err = stale.Products().Add(ctx, &models.Product{Name: "Webcam", Price: 59.99})
	require.NoError(t, err)
	mine.Price = 75
	require.NoError(t, stale.Products().Update(ctx, mine))

	err = stale.Save(ctx)
	assert.ErrorIs(t, err, types.ErrConcurrencyConflict)

	orphan, err := stale.Products().GetAll().Where("name = ?", "Webcam").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, orphan)
}

func TestFailedSaveRestoresAllStagedUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := addProduct(t, db, "Laptop", 999.99)
	b := addProduct(t, db, "Mouse", 19.99)

	time.Sleep(5 * time.Millisecond)

	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()
	mineA, _, err := uow.Products().GetByID(ctx, a.ID)
	require.NoError(t, err)
	mineB, _, err := uow.Products().GetByID(ctx, b.ID)
	require.NoError(t, err)
	updatedA := mineA.UpdatedAt

	mineA.Price = 100
	require.NoError(t, uow.Products().Update(ctx, mineA))
	mineB.Price = 10
	mineB.Version = 99 // stale, fails the version check after the first update applied
	require.NoError(t, uow.Products().Update(ctx, mineB))

	err = uow.Save(ctx)
	require.ErrorIs(t, err, types.ErrConcurrencyConflict)
	// Every staged update is back at its pre-flush state, so fixing the
	// stale version is enough for a retry without reloading.
	assert.Equal(t, int64(1), mineA.Version)
	assert.True(t, mineA.UpdatedAt.Equal(updatedA))
	assert.Equal(t, int64(99), mineB.Version)
	assert.Equal(t, 2, uow.Pending())

	mineB.Version = 1
	require.NoError(t, uow.Save(ctx))
	assert.Equal(t, int64(2), mineA.Version)
	assert.Equal(t, int64(2), mineB.Version)

	reloaded, _, err := uow.Products().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, reloaded.Price, 0.0001)
	assert.Equal(t, int64(2), reloaded.Version)
}

func TestFailedSaveInTransactionIsRollbackOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := addProduct(t, db, "Laptop", 999.99)

	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()
	require.NoError(t, uow.BeginTransaction(ctx, nil))

	_, err := uow.Products().Add(ctx, &models.Product{Name: "Webcam", Price: 59.99})
	require.NoError(t, err)
	require.NoError(t, uow.Save(ctx))

	loaded, _, err := uow.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	loaded.Price = 1
	loaded.Version = 99 // stale, the flush will not match a row
	require.NoError(t, uow.Products().Update(ctx, loaded))
	err = uow.Save(ctx)
	require.ErrorIs(t, err, types.ErrConcurrencyConflict)

	// The open transaction holds a partial flush; only Rollback is allowed.
	assert.ErrorIs(t, uow.Commit(), types.ErrInvalidOperation)
	assert.ErrorIs(t, uow.Save(ctx), types.ErrInvalidOperation)
	require.NoError(t, uow.Rollback())

	partial, err := uow.Products().GetAll().Where("name = ?", "Webcam").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, partial)
}

func TestDeleteByIDIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := addProduct(t, db, "Laptop", 999.99)

	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	found, err := uow.Products().DeleteByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, uow.Save(ctx))

	_, stillThere, err := uow.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stillThere)

	found, err = uow.Products().DeleteByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, uow.Pending())
	require.NoError(t, uow.Save(ctx))
}

func TestCloseDisposesUnit(t *testing.T) {
	db := newTestDB(t)
	uow := unitofwork.New(db)
	require.NoError(t, uow.Close())
	require.NoError(t, uow.Close())

	assert.ErrorIs(t, uow.Save(context.Background()), types.ErrInvalidOperation)
	assert.ErrorIs(t, uow.BeginTransaction(context.Background(), nil), types.ErrInvalidOperation)
	assert.ErrorIs(t, uow.Commit(), types.ErrInvalidOperation)
	assert.ErrorIs(t, uow.Rollback(), types.ErrInvalidOperation)
}

func TestBeginTransactionTwiceRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	require.NoError(t, uow.BeginTransaction(ctx, nil))
	err := uow.BeginTransaction(ctx, nil)
	assert.ErrorIs(t, err, types.ErrInvalidOperation)
	require.NoError(t, uow.Rollback())
}

func TestCommitWithoutTransactionRejected(t *testing.T) {
	uow := unitofwork.New(newTestDB(t))
	defer func() { _ = uow.Close() }()
	assert.ErrorIs(t, uow.Commit(), types.ErrInvalidOperation)
	assert.ErrorIs(t, uow.Rollback(), types.ErrInvalidOperation)
}

func TestRollbackDiscardsSavedWork(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	require.NoError(t, uow.BeginTransaction(ctx, nil))
	_, err := uow.Products().Add(ctx, &models.Product{Name: "Laptop", Price: 999.99})
	require.NoError(t, err)
	require.NoError(t, uow.Save(ctx))
	require.NoError(t, uow.Rollback())

	n, err := uow.Products().GetAll().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunInTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()
	boom := errors.New("boom")
	err := uow.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := uow.Products().Add(ctx, &models.Product{Name: "Laptop", Price: 1}); err != nil {
			return err
		}
		if err := uow.Save(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := uow.Products().GetAll().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = uow.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := uow.Products().Add(ctx, &models.Product{Name: "Mouse", Price: 19.99}); err != nil {
			return err
		}
		return uow.Save(ctx)
	})
	require.NoError(t, err)

	n, err = uow.Products().GetAll().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMultipleSavesInOneTransaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	require.NoError(t, uow.BeginTransaction(ctx, nil))
	_, err := uow.Products().Add(ctx, &models.Product{Name: "Laptop", Price: 999.99})
	require.NoError(t, err)
	require.NoError(t, uow.Save(ctx))
	_, err = uow.Products().Add(ctx, &models.Product{Name: "Mouse", Price: 19.99})
	require.NoError(t, err)
	require.NoError(t, uow.Save(ctx))
	require.NoError(t, uow.Commit())

	n, err := uow.Products().GetAll().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
