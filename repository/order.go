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
	"time"

	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
)

// OrderStatistics is the aggregate projection of one order: its item count
// and total value computed in the database rather than in memory.
type OrderStatistics struct {
	OrderID    int64     `bun:"order_id"`
	CustomerID int64     `bun:"customer_id"`
	OrderDate  time.Time `bun:"order_date"`
	ItemCount  int       `bun:"item_count"`
	TotalValue float64   `bun:"total_value"`
}

// OrderRepository adds order-specific named queries, validates referential
// integrity before staging, and cascades deletes to order items.
type OrderRepository struct {
	Repository[models.Order]
	session Session
}

// NewOrderRepository builds an order repository over session.
func NewOrderRepository(session Session) *OrderRepository {
	return &OrderRepository{
		Repository: New[models.Order](session),
		session:    session,
	}
}

// GetByDateRange returns orders placed within [from, to], inclusive.
func (r *OrderRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]*models.Order, error) {
	if from.IsZero() || to.IsZero() {
		return nil, types.InvalidArgumentf("date range bounds are required")
	}
	if to.Before(from) {
		return nil, types.InvalidArgumentf("date range end precedes start")
	}
	return query.All[models.Order](r.session.DB()).
		Where("order_date >= ? AND order_date <= ?", from.UTC(), to.UTC()).
		OrderBy("order_date", true).
		Scan(ctx)
}

// GetRecent returns orders placed within the last `days` days.
func (r *OrderRepository) GetRecent(ctx context.Context, days int) ([]*models.Order, error) {
	if days <= 0 {
		return nil, types.InvalidArgumentf("days must be > 0, got %d", days)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return query.All[models.Order](r.session.DB()).
		Where("order_date >= ?", cutoff).
		OrderBy("order_date", false).
		Scan(ctx)
}

// GetWithItems returns one order with its items eagerly included.
func (r *OrderRepository) GetWithItems(ctx context.Context, id int64) (*models.Order, bool, error) {
	return r.GetByID(ctx, id, "Items")
}

// GetAllWithItems returns every order with items eagerly included, so the
// derived total value and item count are meaningful on each result.
func (r *OrderRepository) GetAllWithItems(ctx context.Context) ([]*models.Order, error) {
	return query.All[models.Order](r.session.DB()).
		Relations("Items").
		OrderBy("id", true).
		Scan(ctx)
}

// GetStatistics computes per-order item counts and totals as a single
// aggregate query.
func (r *OrderRepository) GetStatistics(ctx context.Context) ([]*OrderStatistics, error) {
	stats := make([]*OrderStatistics, 0)
	err := r.session.DB().NewSelect().
		Model((*models.Order)(nil)).
		ColumnExpr("o.id AS order_id").
		ColumnExpr("o.customer_id AS customer_id").
		ColumnExpr("o.order_date AS order_date").
		ColumnExpr("COUNT(oi.id) AS item_count").
		ColumnExpr("COALESCE(SUM(oi.price), 0.0) AS total_value").
		Join("LEFT JOIN order_items AS oi ON oi.order_id = o.id").
		GroupExpr("o.id, o.customer_id, o.order_date").
		OrderExpr("o.id").
		Scan(ctx, &stats)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Add validates that the referenced customer exists before anything is
// staged, then stages the order together with its inline items. The check is
// deliberate: a dangling customer id is a caller mistake, not a database
// constraint incident.
func (r *OrderRepository) Add(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil {
		return nil, types.InvalidArgumentf("entity must not be nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		if item == nil {
			return nil, types.InvalidArgumentf("order item must not be nil")
		}
		item.Normalize()
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	known, err := query.All[models.Customer](r.session.DB()).
		Where("id = ?", order.CustomerID).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, types.InvalidArgumentf("order references missing customer %d", order.CustomerID)
	}
	return r.Repository.Add(ctx, order)
}

// Delete routes through DeleteByID so removal cascades to the order's items
// no matter how it was requested.
func (r *OrderRepository) Delete(ctx context.Context, order *models.Order) error {
	if order == nil {
		return types.InvalidArgumentf("entity must not be nil")
	}
	_, err := r.DeleteByID(ctx, order.ID)
	return err
}

// DeleteByID removes the order and cascades to its items. Returns false
// without staging anything when the order does not exist.
func (r *OrderRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	order, found, err := r.GetByID(ctx, id, "Items")
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	for _, item := range order.Items {
		r.session.StageDelete(item)
	}
	r.session.StageDelete(order)
	return true, nil
}
