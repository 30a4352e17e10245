// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"

	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/iotexproject/pdao-governance/action/protocol/pdao"
	"github.com/iotexproject/pdao-governance/db"
	"github.com/iotexproject/pdao-governance/pkg/log"
	"github.com/iotexproject/pdao-governance/pkg/tracer"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

var (
	// Default is the default config
	Default = Config{
		Governance: pdao.DefaultConfig,
		DB:         db.DefaultConfig,
		SubLogs:    make(map[string]log.GlobalConfig),
		Agent: Agent{
			Workers: 4,
		},
		Simulator: Simulator{
			BlockInterval: 5 * 60,
			Challengers:   3,
		},
		Metrics: Metrics{
			Path: "/metrics",
		},
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config value")

	// Validates is the collection config validation functions
	Validates = []Validate{
		ValidateGovernance,
		ValidateDB,
		ValidateAgent,
		ValidateMetrics,
	}
)

type (
	// Agent is the config of the off-chain proposer and challenger
	Agent struct {
		// Workers is the number of workers computing phase 2 leaves, 0 for one per CPU
		Workers int `yaml:"workers"`
	}

	// Simulator is the config of the in-process simulation
	Simulator struct {
		// BlockInterval is the number of seconds between simulated blocks
		BlockInterval uint64 `yaml:"blockInterval"`
		// Challengers is the number of challenger agents
		Challengers int    `yaml:"challengers"`
		GenesisPath string `yaml:"genesisPath"`
	}

	// Metrics is the config of the prometheus endpoint
	Metrics struct {
		// Port serves the metrics when non zero
		Port int    `yaml:"port"`
		Path string `yaml:"path"`
	}

	// Config is the root config struct, each package's config should be put as its sub struct
	Config struct {
		Governance pdao.Config                 `yaml:"governance"`
		DB         db.Config                   `yaml:"db"`
		Log        log.GlobalConfig            `yaml:"log"`
		SubLogs    map[string]log.GlobalConfig `yaml:"subLogs"`
		Tracer     tracer.Config               `yaml:"tracer"`
		Agent      Agent                       `yaml:"agent"`
		Simulator  Simulator                   `yaml:"simulator"`
		Metrics    Metrics                     `yaml:"metrics"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config path is not empty, it will read from
// the file and override the default configs. By default, it will apply all validation functions. To bypass validation,
// use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// ValidateGovernance validates the governance parameters
func ValidateGovernance(cfg Config) error {
	if err := cfg.Governance.Validate(); err != nil {
		return errors.Wrap(ErrInvalidCfg, err.Error())
	}
	return nil
}

// ValidateDB validates the db backend
func ValidateDB(cfg Config) error {
	switch cfg.DB.DBType {
	case db.DBMemory:
		return nil
	case db.DBBolt, db.DBPebble, db.DBBadger:
		if cfg.DB.DbPath == "" {
			return errors.Wrapf(ErrInvalidCfg, "%s needs a db path", cfg.DB.DBType)
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidCfg, "unsupported db type %s", cfg.DB.DBType)
	}
}

// ValidateAgent validates the agent config
func ValidateAgent(cfg Config) error {
	if cfg.Agent.Workers < 0 {
		return errors.Wrap(ErrInvalidCfg, "agent workers cannot be negative")
	}
	if cfg.Simulator.Challengers < 0 {
		return errors.Wrap(ErrInvalidCfg, "simulator challengers cannot be negative")
	}
	return nil
}

// ValidateMetrics validates the metrics endpoint
func ValidateMetrics(cfg Config) error {
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		return errors.Wrapf(ErrInvalidCfg, "invalid metrics port %d", cfg.Metrics.Port)
	}
	return nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
