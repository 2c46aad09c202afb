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

package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/northwind-go/northwind"
	"github.com/northwind-go/northwind/database"
	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/odata"
	"github.com/northwind-go/northwind/unitofwork"
)

// initDB brings up the full stack the way an embedding application would:
// config, factory, manager, migrations. An in-memory SQLite store needs a
// single-connection pool so every session sees the same database.
func initDB(t *testing.T) *bun.DB {
	t.Helper()
	cfg := &database.Config{
		ConnectionConfig: database.ConnectionConfig{
			Type:         "sqlite",
			DBName:       ":memory:",
			MaxIdleConns: 1,
			MaxOpenConns: 1,
		},
		MigrateConfig: database.MigrateConfig{EnableMigrateOnStartup: true},
	}
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })
	return db
}

func TestSeededDataset(t *testing.T) {
	db := initDB(t)
	ctx := context.Background()

	require.NoError(t, northwind.Seed(ctx, db))
	// A second run must not duplicate anything.
	require.NoError(t, northwind.Seed(ctx, db))

	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	customers, err := uow.Customers().GetAll().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, customers)

	products, err := uow.Products().GetAll().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, products)

	berlin, err := uow.Customers().GetByCity(ctx, "Berlin")
	require.NoError(t, err)
	require.Len(t, berlin, 1)
	assert.Equal(t, "Alice", berlin[0].Name)

	alice, found, err := uow.Customers().GetWithOrders(ctx, berlin[0].ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, alice.Orders, 1)

	order, found, err := uow.Orders().GetWithItems(ctx, alice.Orders[0].ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, order.ItemCount())
	assert.InDelta(t, 999.99, order.TotalValue(), 0.0001)
	assert.Equal(t, "Laptop", order.Items[0].ProductName)
}

func TestServiceFacade(t *testing.T) {
	db := initDB(t)
	ctx := context.Background()
	require.NoError(t, northwind.Seed(ctx, db))

	svc := northwind.NewServiceWithDB[models.Product](db, odata.ProductMapping())

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	created := &models.Product{Name: "Webcam", Price: 59.99}
	require.NoError(t, svc.Create(ctx, created))
	require.NotZero(t, created.ID)

	loaded, found, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Webcam", loaded.Name)

	loaded.Price = 89.99
	require.NoError(t, svc.Update(ctx, loaded))

	page, err := svc.Page(ctx, 1, 3, "price", false)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "Laptop", page.Items[0].Name)

	result, err := svc.Query(ctx, odata.Options{
		Filter:  "price lt 100",
		OrderBy: "price desc",
		Count:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Count)
	assert.Equal(t, 3, *result.Count)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "Webcam", result.Items[0].Name)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
