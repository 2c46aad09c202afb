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

	"github.com/uptrace/bun"
)

// Product is a catalog item. Price is stored with two decimal places.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	AuditFields

	Name  string  `bun:"name,notnull" json:"name"`
	Price float64 `bun:"price,notnull" json:"price"`
}

// Normalize rounds the price to two decimal places before it is staged.
func (p *Product) Normalize() {
	p.Price = math.Round(p.Price*100) / 100
}

// Validate checks the required-field invariants.
func (p *Product) Validate() error {
	if err := requireString("product name", p.Name, 255); err != nil {
		return err
	}
	return requirePositivePrice("product price", p.Price)
}
