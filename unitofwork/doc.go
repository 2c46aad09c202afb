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

// Package unitofwork coordinates repositories over one database session.
// Repositories obtained from a UnitOfWork stage their mutations instead of
// writing immediately; Save flushes every staged change in a single
// transaction, stamping audit timestamps and enforcing optimistic
// concurrency through row versions. A unit of work hands out at most one
// repository per entity type and must not be shared across goroutines.
package unitofwork
