// Package monitor tails append-only log sinks and matches appended
// lines against compiled event triggers.
package monitor

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// EventCallback receives the action name and named captures of a
// matched trigger.
type EventCallback func(action string, captures map[string]string)

// Trigger is a compiled regex paired with a target action.
type Trigger struct {
	// EventName identifies the trigger in logs
	EventName string
	// Action is the name of the action to dispatch on match
	Action string

	re *regexp.Regexp
}

// NewTrigger compiles a trigger from its pattern.
// Parameters:
//   - eventName: Name of the event
//   - pattern: Regular expression with named capture groups
//   - action: Name of the action to dispatch
//
// Returns:
//   - *Trigger: The compiled trigger
//   - error: Any compile error
func NewTrigger(eventName, pattern, action string) (*Trigger, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Trigger{EventName: eventName, Action: action, re: re}, nil
}

// Match searches the line and, on a hit, returns the named captures.
// Parameters:
//   - line: Line to match against
//
// Returns:
//   - map[string]string: Named capture groups
//   - bool: Whether the line matched
func (t *Trigger) Match(line string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	captures := map[string]string{}
	for i, name := range t.re.SubexpNames() {
		if i > 0 && name != "" {
			captures[name] = m[i]
		}
	}
	return captures, true
}

// LogFileMonitor polls an append-only log file and feeds appended
// lines through its triggers. Triggers are evaluated in declaration
// order and only the first match fires.
type LogFileMonitor struct {
	name     string
	path     string
	interval time.Duration
	triggers []*Trigger
	callback EventCallback
	log      *slog.Logger

	m       sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewLogFileMonitor creates a monitor over the given sink.
// Parameters:
//   - name: Monitor name for logs
//   - path: Path of the log file to tail
//   - interval: Poll interval
//   - triggers: Triggers in declaration order
//   - callback: Invoked for the first matching trigger per line
//   - log: Logger; nil falls back to slog.Default()
//
// Returns:
//   - *LogFileMonitor: The initialized monitor
func NewLogFileMonitor(name, path string, interval time.Duration, triggers []*Trigger, callback EventCallback, log *slog.Logger) *LogFileMonitor {
	if log == nil {
		log = slog.Default()
	}
	return &LogFileMonitor{
		name:     name,
		path:     path,
		interval: interval,
		triggers: triggers,
		callback: callback,
		log:      log,
	}
}

// Start begins tailing from the current end of the sink. Calling
// Start on a running monitor is a no-op.
func (m *LogFileMonitor) Start() {
	m.m.Lock()
	defer m.m.Unlock()

	if m.running {
		m.log.Warn("monitor already running", "monitor", m.name)
		return
	}

	m.running = true
	m.stop = make(chan struct{})
	m.wg.Add(1)
	go m.loop()

	m.log.Info("monitor started", "monitor", m.name, "path", m.path)
}

// Stop terminates the monitor and waits for its loop to exit.
func (m *LogFileMonitor) Stop() {
	m.m.Lock()
	if !m.running {
		m.m.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.m.Unlock()

	m.wg.Wait()
	m.log.Info("monitor stopped", "monitor", m.name)
}

// loop is the polling loop. It starts at the current end of the file,
// resets to 0 on rotation, waits longer while the file is absent, and
// doubles its backoff after a read error.
func (m *LogFileMonitor) loop() {
	defer m.wg.Done()

	position := fileSize(m.path)

	for {
		size, exists := statSize(m.path)

		switch {
		case !exists:
			m.log.Warn("log file absent, waiting", "monitor", m.name, "path", m.path)
			if !m.wait(5 * m.interval) {
				return
			}
			continue

		case size < position:
			m.log.Info("log file rotated, resetting position", "monitor", m.name, "path", m.path)
			position = 0
		}

		if size > position {
			newPosition, lines, err := readFrom(m.path, position)
			if err != nil {
				m.log.Error("error reading log file", "monitor", m.name, "err", err)
				if !m.wait(2 * m.interval) {
					return
				}
				continue
			}

			position = newPosition
			for _, line := range lines {
				line = strings.TrimSpace(line)
				if line != "" {
					m.processLine(line)
				}
			}
		}

		if !m.wait(m.interval) {
			return
		}
	}
}

// processLine evaluates the line against the triggers in declaration
// order; the first match wins.
// Parameters:
//   - line: Trimmed, non-empty line
func (m *LogFileMonitor) processLine(line string) {
	for _, trigger := range m.triggers {
		if captures, ok := trigger.Match(line); ok {
			m.log.Info("event triggered",
				"monitor", m.name, "event", trigger.EventName, "action", trigger.Action)
			m.callback(trigger.Action, captures)
			return
		}
	}
}

// wait sleeps for d or until the monitor is stopped.
// Parameters:
//   - d: Sleep duration
//
// Returns:
//   - bool: False when the monitor was stopped
func (m *LogFileMonitor) wait(d time.Duration) bool {
	select {
	case <-m.stop:
		return false
	case <-time.After(d):
		return true
	}
}

// readFrom reads the bytes appended after pos and splits them into
// lines.
// Parameters:
//   - path: File to read
//   - pos: Byte offset to resume from
//
// Returns:
//   - int64: New offset after the read
//   - []string: Raw lines, possibly with surrounding whitespace
//   - error: Any open/seek/read error
func readFrom(path string, pos int64) (int64, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return pos, nil, err
	}
	defer f.Close()

	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return pos, nil, err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return pos, nil, err
	}

	return pos + int64(len(data)), strings.Split(string(data), "\n"), nil
}

// statSize returns the file size and whether the file exists.
func statSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

// fileSize returns the file size, or 0 when the file is absent.
func fileSize(path string) int64 {
	size, _ := statSize(path)
	return size
}
