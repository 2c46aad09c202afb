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

package query_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/northwind-go/northwind/database"
	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
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

func insertProducts(t *testing.T, db *bun.DB, products ...*models.Product) {
	t.Helper()
	now := time.Now().UTC()
	for _, p := range products {
		p.Version = 1
		p.CreatedAt = now
		p.UpdatedAt = now
	}
	_, err := db.NewInsert().Model(&products).Exec(context.Background())
	require.NoError(t, err)
}

func TestBuilderCompositionErrors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := query.All[models.Product](db).Where("  ").Scan(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = query.All[models.Product](db).WhereFilter(nil).Scan(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = query.All[models.Product](db).Skip(-1).Scan(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = query.All[models.Product](db).Take(0).Scan(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = query.All[models.Product](db).OrderBy("", true).Scan(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestBuilderFirstErrorWins(t *testing.T) {
	b := query.All[models.Product](newTestDB(t)).Where("").Take(-5)
	err := b.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query predicate")
}

func TestBuilderScan(t *testing.T) {
	db := newTestDB(t)
	insertProducts(t, db,
		&models.Product{Name: "Laptop", Price: 999.99},
		&models.Product{Name: "Mouse", Price: 19.99},
		&models.Product{Name: "Keyboard", Price: 49.99},
	)
	ctx := context.Background()

	cheap, err := query.All[models.Product](db).
		Where("price < ?", 100).
		OrderBy("price", true).
		Scan(ctx)
	require.NoError(t, err)
	require.Len(t, cheap, 2)
	assert.Equal(t, "Mouse", cheap[0].Name)
	assert.Equal(t, "Keyboard", cheap[1].Name)
}

func TestBuilderScanOneAbsence(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entity, found, err := query.All[models.Product](db).Where("id = ?", 12345).ScanOne(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, entity)
}

func TestBuilderCountAndExists(t *testing.T) {
	db := newTestDB(t)
	insertProducts(t, db,
		&models.Product{Name: "Laptop", Price: 999.99},
		&models.Product{Name: "Mouse", Price: 19.99},
	)
	ctx := context.Background()

	// Count and Exists ignore paging clauses.
	n, err := query.All[models.Product](db).Take(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := query.All[models.Product](db).Where("price > ?", 500).Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = query.All[models.Product](db).Where("price > ?", 5000).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuilderSkipTake(t *testing.T) {
	db := newTestDB(t)
	insertProducts(t, db,
		&models.Product{Name: "A", Price: 1},
		&models.Product{Name: "B", Price: 2},
		&models.Product{Name: "C", Price: 3},
		&models.Product{Name: "D", Price: 4},
	)
	ctx := context.Background()

	page, err := query.All[models.Product](db).
		OrderedPage("price", true, 1, 2).
		Scan(ctx)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "B", page[0].Name)
	assert.Equal(t, "C", page[1].Name)
}

func TestBuilderColumnsKeepsID(t *testing.T) {
	db := newTestDB(t)
	insertProducts(t, db, &models.Product{Name: "Laptop", Price: 999.99})
	ctx := context.Background()

	rows, err := query.All[models.Product](db).Columns("name").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Laptop", rows[0].Name)
	assert.NotZero(t, rows[0].ID)
	assert.Zero(t, rows[0].Price)
}
