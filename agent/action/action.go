// Package action resolves matched events to remediation actions:
// optional parameter enrichment from the control plane, parameter
// binding, and external script dispatch.
package action

import "log/slog"

// Action is one remediation action from the configuration.
type Action struct {
	// Name uniquely identifies the action
	Name string
	// Script is the script file, relative to the scripts directory
	Script string
	// APIDataEndpoint optionally names a control-plane URL template
	APIDataEndpoint string
	// ParameterMapping binds script parameter names to source keys
	ParameterMapping map[string]string
}

// DataFetcher supplies parameter enrichment from the control plane.
type DataFetcher interface {
	GetData(endpointTemplate string, contextData map[string]string) (map[string]any, error)
}

// ScriptRunner spawns an external script with bound parameters.
type ScriptRunner interface {
	Execute(script string, params map[string]any) (bool, string, string)
}

// Manager owns the immutable action map and dispatches events.
type Manager struct {
	actions map[string]Action
	api     DataFetcher
	runner  ScriptRunner
	log     *slog.Logger
}

// NewManager builds a manager over the declared actions.
// Parameters:
//   - actions: Declared actions
//   - api: Control-plane client
//   - runner: Script executor
//   - log: Logger; nil falls back to slog.Default()
//
// Returns:
//   - *Manager: The initialized manager
func NewManager(actions []Action, api DataFetcher, runner ScriptRunner, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}

	byName := make(map[string]Action, len(actions))
	for _, action := range actions {
		if action.Name == "" {
			log.Warn("skipping action with no name")
			continue
		}
		byName[action.Name] = action
	}

	return &Manager{actions: byName, api: api, runner: runner, log: log}
}

// HandleEvent executes the named action with the given captures. When
// the action declares an enrichment endpoint, the control-plane
// response is fetched first; parameter binding prefers that response
// over the captures. Missing mapping keys are warned and omitted.
// Parameters:
//   - actionName: Name of the action to execute
//   - captures: Named captures from the matched trigger
//
// Returns:
//   - bool: Whether the script ran and exited 0
func (m *Manager) HandleEvent(actionName string, captures map[string]string) bool {
	action, ok := m.actions[actionName]
	if !ok {
		m.log.Error("unknown action", "action", actionName)
		return false
	}

	m.log.Info("handling event", "action", actionName)

	var apiData map[string]any
	if action.APIDataEndpoint != "" {
		data, err := m.api.GetData(action.APIDataEndpoint, captures)
		if err != nil {
			m.log.Error("failed to get control-plane data", "action", actionName, "err", err)
			return false
		}
		apiData = data
	}

	params := map[string]any{}
	for paramName, sourceKey := range action.ParameterMapping {
		if value, ok := apiData[sourceKey]; ok {
			params[paramName] = value
		} else if value, ok := captures[sourceKey]; ok {
			params[paramName] = value
		} else {
			m.log.Warn("parameter mapping key not found",
				"action", actionName, "key", sourceKey)
		}
	}

	ok, stdout, stderr := m.runner.Execute(action.Script, params)
	if !ok {
		m.log.Error("action failed", "action", actionName, "stderr", stderr)
		return false
	}

	m.log.Info("action executed", "action", actionName)
	if stdout != "" {
		m.log.Debug("script output", "action", actionName, "stdout", stdout)
	}
	return true
}
