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

package odata

import "strings"

// Mapping declares which names of an entity a client may reference. Columns
// maps exposed field names to database columns; Relations maps exposed
// expand paths to relation names understood by the query layer. Lookups are
// case-insensitive. Anything not listed is rejected, which keeps raw column
// or relation names out of client hands.
type Mapping struct {
	Columns   map[string]string
	Relations map[string]string
}

func (m Mapping) column(name string) (string, bool) {
	col, ok := m.Columns[strings.ToLower(name)]
	return col, ok
}

func (m Mapping) relation(path string) (string, bool) {
	rel, ok := m.Relations[strings.ToLower(path)]
	return rel, ok
}

// ProductMapping exposes the queryable surface of products.
func ProductMapping() Mapping {
	return Mapping{
		Columns: map[string]string{
			"id":        "id",
			"name":      "name",
			"price":     "price",
			"createdat": "created_at",
			"updatedat": "updated_at",
		},
		Relations: map[string]string{},
	}
}

// CustomerMapping exposes the queryable surface of customers.
func CustomerMapping() Mapping {
	return Mapping{
		Columns: map[string]string{
			"id":        "id",
			"name":      "name",
			"city":      "city",
			"createdat": "created_at",
			"updatedat": "updated_at",
		},
		Relations: map[string]string{
			"orders":       "Orders",
			"orders/items": "Orders.Items",
		},
	}
}

// OrderMapping exposes the queryable surface of orders.
func OrderMapping() Mapping {
	return Mapping{
		Columns: map[string]string{
			"id":         "id",
			"orderdate":  "order_date",
			"customerid": "customer_id",
			"createdat":  "created_at",
			"updatedat":  "updated_at",
		},
		Relations: map[string]string{
			"customer": "Customer",
			"items":    "Items",
		},
	}
}

// OrderItemMapping exposes the queryable surface of order items.
func OrderItemMapping() Mapping {
	return Mapping{
		Columns: map[string]string{
			"id":          "id",
			"orderid":     "order_id",
			"productname": "product_name",
			"price":       "price",
			"createdat":   "created_at",
			"updatedat":   "updated_at",
		},
		Relations: map[string]string{
			"order": "Order",
		},
	}
}
