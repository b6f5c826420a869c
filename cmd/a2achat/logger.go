// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kadirpekel/a2achat/pkg/config"
	"github.com/kadirpekel/a2achat/pkg/logger"
)

const (
	// LogFileEnvVar is the environment variable name for log file path
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar is the environment variable name for log level
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar is the environment variable name for log format
	LogFormatEnvVar = "LOG_FORMAT"
	// DefaultLogLevel keeps diagnostics out of the conversation
	DefaultLogLevel = "warn"
	// DefaultLogFormat is the default log format
	DefaultLogFormat = logger.FormatSimple
)

// logSettings is the resolved logger configuration.
type logSettings struct {
	Level  string
	File   string
	Format string
}

// resolveLogSettings merges CLI flags, environment variables and the config
// file logger section.
// Priority: CLI flags > env vars > config file > defaults
func resolveLogSettings(cliLevel, cliFile, cliFormat string, fileCfg *config.LoggerConfig) logSettings {
	pick := func(cli, env, file, def string) string {
		switch {
		case cli != "":
			return cli
		case os.Getenv(env) != "":
			return os.Getenv(env)
		case file != "":
			return file
		default:
			return def
		}
	}

	var fileLevel, fileFile, fileFormat string
	if fileCfg != nil {
		fileLevel, fileFile, fileFormat = fileCfg.Level, fileCfg.File, fileCfg.Format
	}

	return logSettings{
		Level:  pick(cliLevel, LogLevelEnvVar, fileLevel, DefaultLogLevel),
		File:   pick(cliFile, LogFileEnvVar, fileFile, ""),
		Format: pick(cliFormat, LogFormatEnvVar, fileFormat, DefaultLogFormat),
	}
}

// initLogger installs the default logger. The returned cleanup closes the
// log file, if any.
func initLogger(s logSettings) (func(), error) {
	level, err := logger.ParseLevel(s.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer = os.Stderr
	cleanup := func() {}
	if s.File != "" {
		file, cleanupFn, err := logger.OpenLogFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		cleanup = cleanupFn
	}

	logger.Init(level, output, s.Format)
	return cleanup, nil
}
