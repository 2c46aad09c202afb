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
	"time"

	"github.com/uptrace/bun"

	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/unitofwork"
	"github.com/northwind-go/northwind/utils"
)

var seedLog = utils.NewLogger("SEED")

// Seed loads the baseline demonstration dataset: three customers, four
// products, and two orders with their items. Seeding is idempotent at the
// dataset level: if any customer already exists the database is considered
// seeded and nothing is written.
func Seed(ctx context.Context, db *bun.DB) error {
	uow := unitofwork.New(db)
	defer func() { _ = uow.Close() }()

	seeded, err := uow.Customers().GetAll().Exists(ctx)
	if err != nil {
		return err
	}
	if seeded {
		seedLog.Debug("baseline dataset already present, skipping seed")
		return nil
	}

	products := []*models.Product{
		{Name: "Laptop", Price: 999.99},
		{Name: "Mouse", Price: 19.99},
		{Name: "Keyboard", Price: 49.99},
		{Name: "Monitor", Price: 249.99},
	}
	for _, p := range products {
		if _, err := uow.Products().Add(ctx, p); err != nil {
			return err
		}
	}

	customers := []*models.Customer{
		{Name: "Alice", City: "Berlin"},
		{Name: "Bob", City: "London"},
		{Name: "Clara", City: "Paris"},
	}
	for _, c := range customers {
		if _, err := uow.Customers().Add(ctx, c); err != nil {
			return err
		}
	}

	// Orders reference customer identities, which only exist after the
	// first save assigns them.
	if err := uow.Save(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	orders := []*models.Order{
		{
			OrderDate:  now.AddDate(0, 0, -7),
			CustomerID: customers[0].ID,
			Items: []*models.OrderItem{
				{ProductName: "Laptop", Price: 999.99},
			},
		},
		{
			OrderDate:  now.AddDate(0, 0, -2),
			CustomerID: customers[1].ID,
			Items: []*models.OrderItem{
				{ProductName: "Mouse", Price: 19.99},
				{ProductName: "Keyboard", Price: 49.99},
			},
		},
	}
	for _, o := range orders {
		if _, err := uow.Orders().Add(ctx, o); err != nil {
			return err
		}
	}
	if err := uow.Save(ctx); err != nil {
		return err
	}

	seedLog.WithField("customers", len(customers)).
		WithField("products", len(products)).
		WithField("orders", len(orders)).
		Info("baseline dataset seeded")
	return nil
}
