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

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the repository, unit of work, and query layers.
// Absence of a row is never an error: single-entity lookups and delete-by-id
// report it through a boolean instead.
var (
	// ErrInvalidArgument indicates caller-supplied input violated a documented
	// precondition (missing predicate, out-of-range page parameters, blank
	// required field). The caller should correct the input, not retry.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConcurrencyConflict indicates a row was modified by another unit of
	// work between read and save. The caller should reload and retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrInvalidOperation indicates a call that is not valid in the current
	// state, such as using a disposed unit of work or opening a transaction
	// while another one is still active.
	ErrInvalidOperation = errors.New("invalid operation")
)

// InvalidArgumentf wraps ErrInvalidArgument with a formatted detail message.
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// PersistenceError wraps any storage-layer failure that is neither an invalid
// argument nor a concurrency conflict. Its Error string is intentionally
// generic; the original cause is preserved for internal diagnostics and must
// not be echoed to external clients verbatim.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s", e.Op)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// NewPersistenceError wraps cause into a PersistenceError for operation op.
func NewPersistenceError(op string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Cause: cause}
}

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
