// Package config loads and validates the agent's YAML configuration.
// Invalid configuration is fatal: the agent refuses to start.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// MonitorTypeLogFileTail is the only monitor type currently supported.
const MonitorTypeLogFileTail = "LogFileTail"

// Config is the full agent configuration.
//
// Parsed with yaml.v3 rather than a config framework: parameter
// mapping keys become script parameter names and must keep their case.
type Config struct {
	General       General      `yaml:"General"`
	EventMonitors []MonitorDef `yaml:"EventMonitors"`
	Actions       []ActionDef  `yaml:"Actions"`
}

// General holds the agent-wide settings.
type General struct {
	// VMIdentifier names this VM towards the control plane
	VMIdentifier string `yaml:"VMIdentifier"`
	// APIKey is the pre-shared control-plane credential
	APIKey string `yaml:"APIKey"`
	// ManagerBaseURL is the absolute base URL of the control plane
	ManagerBaseURL string `yaml:"ManagerBaseURL"`
	// ScriptsPath is the directory remediation scripts live under
	ScriptsPath string `yaml:"ScriptsPath"`
}

// MonitorDef describes one event monitor.
type MonitorDef struct {
	Name                 string       `yaml:"Name"`
	Type                 string       `yaml:"Type"`
	LogFilePath          string       `yaml:"LogFilePath"`
	CheckIntervalSeconds float64      `yaml:"CheckIntervalSeconds"`
	EventTriggers        []TriggerDef `yaml:"EventTriggers"`
}

// TriggerDef maps a regex to an action.
type TriggerDef struct {
	EventName string `yaml:"EventName"`
	Regex     string `yaml:"Regex"`
	Action    string `yaml:"Action"`
}

// ActionDef describes one remediation action.
type ActionDef struct {
	Name             string            `yaml:"Name"`
	Script           string            `yaml:"Script"`
	APIDataEndpoint  string            `yaml:"APIDataEndpoint"`
	ParameterMapping map[string]string `yaml:"ParameterMapping"`
}

// Load reads the configuration file at path and validates it.
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: The validated configuration
//   - error: Any load or validation error
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}

	for i := range cfg.EventMonitors {
		if cfg.EventMonitors[i].CheckIntervalSeconds <= 0 {
			cfg.EventMonitors[i].CheckIntervalSeconds = 1.0
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	return &cfg, nil
}

// validate checks the configuration against the recognized surface.
func (c *Config) validate() error {
	if c.General.VMIdentifier == "" {
		return fmt.Errorf("General.VMIdentifier is required")
	}
	if c.General.APIKey == "" {
		return fmt.Errorf("General.APIKey is required")
	}
	if c.General.ManagerBaseURL == "" {
		return fmt.Errorf("General.ManagerBaseURL is required")
	}
	if u, err := url.Parse(c.General.ManagerBaseURL); err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("General.ManagerBaseURL must be an absolute URL")
	}
	if c.General.ScriptsPath == "" {
		return fmt.Errorf("General.ScriptsPath is required")
	}
	if err := os.MkdirAll(c.General.ScriptsPath, 0o755); err != nil {
		return fmt.Errorf("General.ScriptsPath is not creatable: %w", err)
	}

	actionNames := map[string]bool{}
	for i, action := range c.Actions {
		if action.Name == "" {
			return fmt.Errorf("action at index %d is missing Name", i)
		}
		if actionNames[action.Name] {
			return fmt.Errorf("duplicate action name %q", action.Name)
		}
		actionNames[action.Name] = true

		if action.Script == "" {
			return fmt.Errorf("action %q is missing Script", action.Name)
		}
		if action.ParameterMapping == nil {
			return fmt.Errorf("action %q is missing ParameterMapping", action.Name)
		}
	}

	monitorNames := map[string]bool{}
	for i, monitor := range c.EventMonitors {
		if monitor.Name == "" {
			return fmt.Errorf("monitor at index %d is missing Name", i)
		}
		if monitorNames[monitor.Name] {
			return fmt.Errorf("duplicate monitor name %q", monitor.Name)
		}
		monitorNames[monitor.Name] = true

		if monitor.Type != MonitorTypeLogFileTail {
			return fmt.Errorf("monitor %q has unsupported type %q", monitor.Name, monitor.Type)
		}
		if monitor.LogFilePath == "" {
			return fmt.Errorf("monitor %q is missing LogFilePath", monitor.Name)
		}

		for j, trigger := range monitor.EventTriggers {
			if trigger.EventName == "" {
				return fmt.Errorf("trigger at index %d in monitor %q is missing EventName", j, monitor.Name)
			}
			if trigger.Regex == "" {
				return fmt.Errorf("trigger %q is missing Regex", trigger.EventName)
			}
			if _, err := regexp.Compile(trigger.Regex); err != nil {
				return fmt.Errorf("trigger %q has invalid Regex: %w", trigger.EventName, err)
			}
			if trigger.Action == "" {
				return fmt.Errorf("trigger %q is missing Action", trigger.EventName)
			}
			if !actionNames[trigger.Action] {
				return fmt.Errorf("trigger %q refers to undeclared action %q", trigger.EventName, trigger.Action)
			}
		}
	}

	return nil
}
