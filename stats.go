package bancheck

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Stat tracks live processing statistics broadcast to web clients.
type Stat struct {
	// Targets is the total number of URLs across submitted tasks
	Targets int `json:"targets"`

	m          sync.RWMutex
	timestamps []time.Time
}

// MarshalJSON implements the json.Marshaler interface for Stat
// Returns:
//   - []byte: JSON representation of the statistics
//   - error: Any error that occurred during marshaling
func (s *Stat) MarshalJSON() ([]byte, error) {
	type Alias Stat

	return json.Marshal(&struct {
		RPM       int    `json:"rpm"`
		Processed int    `json:"processed"`
		Elapsed   string `json:"elapsed"`
		*Alias
	}{
		RPM:       s.rpm(),
		Processed: len(s.timestamps),
		Elapsed:   s.elapsed(),
		Alias:     (*Alias)(s),
	})
}

// addTargets raises the target counter when a task is submitted.
// Parameters:
//   - n: Number of URLs in the new task
func (s *Stat) addTargets(n int) {
	s.m.Lock()
	s.Targets += n
	s.m.Unlock()
}

// markProcessed records the completion time of one URL.
func (s *Stat) markProcessed() {
	s.m.Lock()
	s.timestamps = append(s.timestamps, time.Now())
	s.m.Unlock()
}

// rpm calculates the current requests per minute based on completions
// Returns:
//   - int: Number of completed URLs in the last minute
func (s *Stat) rpm() int {
	rpm, lastMinute := 0, time.Now().Add(-time.Minute)
	for i := len(s.timestamps) - 1; i >= 0; i-- {
		if s.timestamps[i].Compare(lastMinute) < 0 {
			break
		}
		rpm++
	}
	return rpm
}

// elapsed formats the span between the first and last completion.
// Returns:
//   - string: Elapsed time as mm:ss
func (s *Stat) elapsed() string {
	if tLen := len(s.timestamps); tLen > 1 {
		elapsed := int(s.timestamps[tLen-1].Sub(s.timestamps[0]).Seconds())
		minutes := elapsed / 60
		seconds := elapsed % 60
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
	return "00:00"
}
