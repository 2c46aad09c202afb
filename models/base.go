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
	"time"
)

// AuditFields is embedded by every entity. It carries the surrogate identity,
// the optimistic concurrency version, and the audit timestamps. The identity
// is assigned by the database on insert; client-supplied values are reset to
// zero before staging. CreatedAt is written once and never mutated, UpdatedAt
// is refreshed on every successful mutation.
type AuditFields struct {
	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Version   int64     `bun:"version,notnull,default:1" json:"version"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Entity is implemented by all persisted models through AuditFields. The unit
// of work uses it to reset identities on add and to manage versions and audit
// timestamps when flushing staged changes.
type Entity interface {
	GetID() int64
	SetID(id int64)
	GetVersion() int64
	SetVersion(v int64)
	GetUpdatedAt() time.Time
	TouchCreated(now time.Time)
	TouchUpdated(now time.Time)
}

func (a *AuditFields) GetID() int64      { return a.ID }
func (a *AuditFields) SetID(id int64)    { a.ID = id }
func (a *AuditFields) GetVersion() int64 { return a.Version }
func (a *AuditFields) SetVersion(v int64) { a.Version = v }

func (a *AuditFields) GetUpdatedAt() time.Time { return a.UpdatedAt }

// TouchCreated stamps both audit timestamps with the same instant.
func (a *AuditFields) TouchCreated(now time.Time) {
	a.CreatedAt = now.UTC()
	a.UpdatedAt = a.CreatedAt
}

// TouchUpdated refreshes UpdatedAt only.
func (a *AuditFields) TouchUpdated(now time.Time) {
	a.UpdatedAt = now.UTC()
}

// Aggregate is implemented by entities whose child rows are inserted in the
// same save as the parent. After the parent insert assigns its identity, the
// unit of work calls BindChildren so the children carry the parent key, then
// inserts each child.
type Aggregate interface {
	Children() []Entity
	BindChildren()
}

// Validator is implemented by models that check their own required fields.
// The generic repository calls it before staging an insert or update.
type Validator interface {
	Validate() error
}
