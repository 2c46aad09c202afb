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

package utils

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("WARNING"))
	assert.Equal(t, logrus.ErrorLevel, ParseLogLevel(" error "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
}

func TestNewLoggerSharesInstances(t *testing.T) {
	first := NewLogger("LOGGER_TEST")
	second := NewLogger("LOGGER_TEST")
	assert.Same(t, first, second)
	assert.Contains(t, RegisteredLoggerNames(), "LOGGER_TEST")
}

func TestSetLoggerLevel(t *testing.T) {
	l := NewLogger("LOGGER_LEVEL_TEST")
	require.True(t, SetLoggerLevel("LOGGER_LEVEL_TEST", "debug"))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("NO_SUCH_LOGGER", "debug"))
}

func TestEnvDefaultBool(t *testing.T) {
	t.Setenv("LOGGER_TEST_FLAG", "yes")
	assert.True(t, EnvDefaultBool("LOGGER_TEST_FLAG", false))
	t.Setenv("LOGGER_TEST_FLAG", "off")
	assert.False(t, EnvDefaultBool("LOGGER_TEST_FLAG", true))
	t.Setenv("LOGGER_TEST_FLAG", "maybe")
	assert.True(t, EnvDefaultBool("LOGGER_TEST_FLAG", true))
	assert.False(t, EnvDefaultBool("LOGGER_TEST_UNSET", false))
}

func TestNamedTextFormatter(t *testing.T) {
	f := &namedTextFormatter{name: "FMT"}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "connected",
		Data:    logrus.Fields{"b": 2, "a": 1},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01 09:30:00.000  INFO [FMT] connected a=1 b=2\n", string(out))
}
