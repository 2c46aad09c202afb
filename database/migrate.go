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
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Migrator creates the schema for every registered model, in registry
// priority order so referenced tables exist before their referrers.
type Migrator struct {
	db     *bun.DB
	logger Logger
}

// NewMigrator constructs a Migrator over the given Bun database.
func NewMigrator(db *bun.DB, logger Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Migrate creates missing tables with foreign keys derived from the models'
// relation tags. Existing tables are left untouched.
func (m *Migrator) Migrate(ctx context.Context) error {
	for _, model := range GetRegisteredModels() {
		_, err := m.db.NewCreateTable().
			Model(model.Instance()).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model.Instance(), err)
		}
		if m.logger != nil {
			m.logger.Debug("Ensured table", "model", fmt.Sprintf("%T", model.Instance()))
		}
	}
	return nil
}

// Drop removes every registered model's table in reverse priority order.
// Used by tests to reset state.
func (m *Migrator) Drop(ctx context.Context) error {
	registered := GetRegisteredModels()
	for i := len(registered) - 1; i >= 0; i-- {
		_, err := m.db.NewDropTable().
			Model(registered[i].Instance()).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", registered[i].Instance(), err)
		}
	}
	return nil
}
