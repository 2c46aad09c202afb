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
	"github.com/uptrace/bun"
)

// Customer owns a collection of orders. Deleting a customer that still owns
// orders is rejected (restrict, not cascade).
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`
	AuditFields

	Name string `bun:"name,notnull" json:"name"`
	City string `bun:"city,notnull" json:"city"`

	Orders []*Order `bun:"rel:has-many,join:id=customer_id" json:"orders,omitempty"`
}

// Validate checks the required-field invariants.
func (c *Customer) Validate() error {
	if err := requireString("customer name", c.Name, 255); err != nil {
		return err
	}
	return requireString("customer city", c.City, 100)
}
