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
	"strings"

	"github.com/northwind-go/northwind/types"
)

func invalidf(format string, args ...interface{}) error {
	return types.InvalidArgumentf(format, args...)
}

func requireString(field, value string, maxLen int) error {
	if strings.TrimSpace(value) == "" {
		return invalidf("%s is required", field)
	}
	if len(value) > maxLen {
		return invalidf("%s must be at most %d characters, got %d", field, maxLen, len(value))
	}
	return nil
}

func requirePositivePrice(field string, value float64) error {
	if value <= 0 {
		return invalidf("%s must be greater than zero, got %v", field, value)
	}
	return nil
}
