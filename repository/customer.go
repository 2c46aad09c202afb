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
	"strings"

	"github.com/northwind-go/northwind/models"
	"github.com/northwind-go/northwind/query"
	"github.com/northwind-go/northwind/types"
)

// CustomerRepository adds customer-specific named queries on top of the
// generic repository and enforces the delete-restrict invariant.
type CustomerRepository struct {
	Repository[models.Customer]
	session Session
}

// NewCustomerRepository builds a customer repository over session.
func NewCustomerRepository(session Session) *CustomerRepository {
	return &CustomerRepository{
		Repository: New[models.Customer](session),
		session:    session,
	}
}

// GetByCity returns customers whose city matches exactly, ignoring case.
// A blank city fails with ErrInvalidArgument.
func (r *CustomerRepository) GetByCity(ctx context.Context, city string) ([]*models.Customer, error) {
	if strings.TrimSpace(city) == "" {
		return nil, types.InvalidArgumentf("city must not be empty")
	}
	return query.All[models.Customer](r.session.DB()).
		Where("LOWER(city) = LOWER(?)", city).
		OrderBy("id", true).
		Scan(ctx)
}

// GetByNameContains returns customers whose name contains substr
// (case-sensitive).
func (r *CustomerRepository) GetByNameContains(ctx context.Context, substr string) ([]*models.Customer, error) {
	if substr == "" {
		return nil, types.InvalidArgumentf("name substring must not be empty")
	}
	return query.All[models.Customer](r.session.DB()).
		Where(containsExpr(r.session, "name"), substr).
		OrderBy("id", true).
		Scan(ctx)
}

// GetWithOrders returns one customer with its orders eagerly included.
func (r *CustomerRepository) GetWithOrders(ctx context.Context, id int64) (*models.Customer, bool, error) {
	return r.GetByID(ctx, id, "Orders")
}

// Delete routes through DeleteByID so the owns-orders check applies no
// matter how the removal was requested.
func (r *CustomerRepository) Delete(ctx context.Context, customer *models.Customer) error {
	if customer == nil {
		return types.InvalidArgumentf("entity must not be nil")
	}
	_, err := r.DeleteByID(ctx, customer.ID)
	return err
}

// DeleteByID rejects deletion while the customer still owns orders. The
// check runs before anything is staged so the violation surfaces as an
// invalid argument, not a database constraint failure.
func (r *CustomerRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	owned, err := query.All[models.Order](r.session.DB()).
		Where("customer_id = ?", id).
		Count(ctx)
	if err != nil {
		return false, err
	}
	if owned > 0 {
		return false, types.InvalidArgumentf("customer %d still owns %d order(s)", id, owned)
	}
	return r.Repository.DeleteByID(ctx, id)
}
