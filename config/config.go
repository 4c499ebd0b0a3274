// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	cfgFile           = ".iceberg-prune.yaml"
	defaultMaxWorkers = 5
	defaultLogLevel   = "info"
)

type Config struct {
	DefaultProfile string                   `yaml:"default-profile"`
	Profiles       map[string]ProfileConfig `yaml:"profile"`
	MaxWorkers     int                      `yaml:"max-workers"`
	LogLevel       string                   `yaml:"log-level"`
}

// ProfileConfig holds the pruning settings selected by name on the
// command line.
type ProfileConfig struct {
	RewriteNot bool   `yaml:"rewrite-not"`
	Output     string `yaml:"output"`
	Verify     bool   `yaml:"verify"`
}

func LoadConfig(configPath string) []byte {
	var path string
	if len(configPath) > 0 {
		path = configPath
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(homeDir, cfgFile)
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return file
}

func ParseConfig(file []byte, profileName string) *ProfileConfig {
	var config Config
	err := yaml.Unmarshal(file, &config)
	if err != nil {
		return nil
	}
	res, ok := config.Profiles[profileName]
	if !ok {
		return nil
	}

	return &res
}

func parseEnvConfig(file []byte) Config {
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		cfg = Config{}
	}

	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = "default"
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	return cfg
}

func fromConfigFiles() Config {
	dir := os.Getenv("ICEBERG_PRUNE_HOME")
	if dir != "" {
		dir = filepath.Join(dir, cfgFile)
	}

	return parseEnvConfig(LoadConfig(dir))
}

var EnvConfig = fromConfigFiles()
