// Package agent wires the configuration, event monitors, control-plane
// client and action dispatch into one runnable unit.
package agent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xenogy/bancheck/agent/action"
	"github.com/xenogy/bancheck/agent/config"
	"github.com/xenogy/bancheck/agent/monitor"
)

// Agent owns the monitors and the action manager built from one
// validated configuration.
type Agent struct {
	cfg      *config.Config
	api      *action.APIClient
	monitors []*monitor.LogFileMonitor
	log      *slog.Logger
}

// New builds an agent from a validated configuration.
// Parameters:
//   - cfg: Validated configuration
//   - log: Logger; nil falls back to slog.Default()
//
// Returns:
//   - *Agent: The initialized agent
//   - error: Any wiring error
func New(cfg *config.Config, log *slog.Logger) (*Agent, error) {
	if log == nil {
		log = slog.Default()
	}

	api := action.NewAPIClient(cfg.General.ManagerBaseURL, cfg.General.APIKey, cfg.General.VMIdentifier, log)

	executor, err := action.NewScriptExecutor(cfg.General.ScriptsPath, log)
	if err != nil {
		return nil, fmt.Errorf("building script executor: %w", err)
	}

	actions := make([]action.Action, 0, len(cfg.Actions))
	for _, def := range cfg.Actions {
		actions = append(actions, action.Action{
			Name:             def.Name,
			Script:           def.Script,
			APIDataEndpoint:  def.APIDataEndpoint,
			ParameterMapping: def.ParameterMapping,
		})
	}
	manager := action.NewManager(actions, api, executor, log)

	dispatch := func(actionName string, captures map[string]string) {
		manager.HandleEvent(actionName, captures)
	}

	monitors := make([]*monitor.LogFileMonitor, 0, len(cfg.EventMonitors))
	for _, def := range cfg.EventMonitors {
		triggers := make([]*monitor.Trigger, 0, len(def.EventTriggers))
		for _, t := range def.EventTriggers {
			trigger, err := monitor.NewTrigger(t.EventName, t.Regex, t.Action)
			if err != nil {
				return nil, fmt.Errorf("compiling trigger %q: %w", t.EventName, err)
			}
			triggers = append(triggers, trigger)
		}

		interval := time.Duration(def.CheckIntervalSeconds * float64(time.Second))
		monitors = append(monitors,
			monitor.NewLogFileMonitor(def.Name, def.LogFilePath, interval, triggers, dispatch, log))
	}

	return &Agent{cfg: cfg, api: api, monitors: monitors, log: log}, nil
}

// TestAPIKey verifies the control-plane credential.
// Returns:
//   - bool: Whether the key was accepted
func (a *Agent) TestAPIKey() bool {
	return a.api.TestAPIKey()
}

// Start launches all monitors.
func (a *Agent) Start() {
	for _, m := range a.monitors {
		m.Start()
	}
	a.log.Info("agent started", "vm", a.cfg.General.VMIdentifier, "monitors", len(a.monitors))
}

// Stop stops all monitors and waits for them to exit.
func (a *Agent) Stop() {
	for _, m := range a.monitors {
		m.Stop()
	}
	a.log.Info("agent stopped")
}
