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

	"github.com/uptrace/bun/dialect"

	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
)

// ProductRepository adds product-specific named queries on top of the
// generic repository.
type ProductRepository struct {
	Repository[models.Product]
	session Session
}

// NewProductRepository builds a product repository over session.
func NewProductRepository(session Session) *ProductRepository {
	return &ProductRepository{
		Repository: New[models.Product](session),
		session:    session,
	}
}

// GetByPriceRange returns products priced within [min, max], inclusive.
func (r *ProductRepository) GetByPriceRange(ctx context.Context, min, max float64) ([]*models.Product, error) {
	if min < 0 {
		return nil, types.InvalidArgumentf("minimum price must be >= 0, got %v", min)
	}
	if max < min {
		return nil, types.InvalidArgumentf("maximum price %v is below minimum %v", max, min)
	}
	return query.All[models.Product](r.session.DB()).
		Where("price >= ? AND price <= ?", min, max).
		OrderBy("price", true).
		Scan(ctx)
}

// GetByNameContains returns products whose name contains substr
// (case-sensitive).
func (r *ProductRepository) GetByNameContains(ctx context.Context, substr string) ([]*models.Product, error) {
	if substr == "" {
		return nil, types.InvalidArgumentf("name substring must not be empty")
	}
	return query.All[models.Product](r.session.DB()).
		Where(containsExpr(r.session, "name"), substr).
		OrderBy("id", true).
		Scan(ctx)
}

// GetMostExpensive returns the n highest-priced products in descending order.
func (r *ProductRepository) GetMostExpensive(ctx context.Context, n int) ([]*models.Product, error) {
	if n < 1 {
		return nil, types.InvalidArgumentf("top count must be >= 1, got %d", n)
	}
	return query.All[models.Product](r.session.DB()).
		OrderBy("price", false).
		Take(n).
		Scan(ctx)
}

// containsExpr returns a case-sensitive substring match expression for the
// session's dialect. LIKE is not used because its case sensitivity depends on
// collation in MySQL and SQLite.
func containsExpr(s Session, column string) string {
	if s.Dialect().Name() == dialect.PG {
		return "strpos(" + column + ", ?) > 0"
	}
	// instr is available in both MySQL and SQLite.
	return "instr(" + column + ", ?) > 0"
}
