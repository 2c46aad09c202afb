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

package models

import (
	"math"
	"time"

	"github.com/uptrace/bun"
)

// Order belongs to exactly one customer and owns its items. Deleting an order
// removes its items as well (cascade).
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`
	AuditFields

	OrderDate  time.Time `bun:"order_date,notnull" json:"order_date"`
	CustomerID int64     `bun:"customer_id,notnull" json:"customer_id"`

	Customer *Customer    `bun:"rel:belongs-to,join:customer_id=id" json:"customer,omitempty"`
	Items    []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

// TotalValue sums the prices of the loaded items. Derived, not persisted;
// items must have been eagerly included for the value to be meaningful.
func (o *Order) TotalValue() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	return math.Round(total*100) / 100
}

// ItemCount returns the number of loaded items. Derived, not persisted.
func (o *Order) ItemCount() int { return len(o.Items) }

// Validate checks the required-field invariants. Referential integrity of
// CustomerID against an existing customer is verified by the order repository
// before the write is staged.
func (o *Order) Validate() error {
	if o.OrderDate.IsZero() {
		return invalidf("order date is required")
	}
	if o.CustomerID <= 0 {
		return invalidf("order customer id is required")
	}
	return nil
}

// Children returns the inline items inserted together with the order.
func (o *Order) Children() []Entity {
	children := make([]Entity, 0, len(o.Items))
	for _, item := range o.Items {
		children = append(children, item)
	}
	return children
}

// BindChildren stamps the assigned order id onto the inline items.
func (o *Order) BindChildren() {
	for _, item := range o.Items {
		item.OrderID = o.ID
	}
}

// OrderItem is a line within an order. ProductName is a denormalized snapshot
// taken at ordering time, not a foreign key into the product catalog.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`
	AuditFields

	OrderID     int64   `bun:"order_id,notnull" json:"order_id"`
	ProductName string  `bun:"product_name,notnull" json:"product_name"`
	Price       float64 `bun:"price,notnull" json:"price"`

	Order *Order `bun:"rel:belongs-to,join:order_id=id" json:"-"`
}

// Normalize rounds the price to two decimal places before it is staged.
func (i *OrderItem) Normalize() {
	i.Price = math.Round(i.Price*100) / 100
}

// Validate checks the required-field invariants.
func (i *OrderItem) Validate() error {
	if err := requireString("order item product name", i.ProductName, 255); err != nil {
		return err
	}
	return requirePositivePrice("order item price", i.Price)
}
