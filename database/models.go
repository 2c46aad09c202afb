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

package database

import (
	"github.com/northwind-go/northwind/models"
)

// Table creation order: referenced tables before their referrers.
func init() {
	RegisteredModel(NewModelAdapter((*models.Product)(nil), 10))
	RegisteredModel(NewModelAdapter((*models.Customer)(nil), 20))
	RegisteredModel(NewModelAdapter((*models.Order)(nil), 30))
	RegisteredModel(NewModelAdapter((*models.OrderItem)(nil), 40))
}
