package state

import (
	"fmt"
	"sync"
	"time"

	"fedharvest/types"
)

// Manager holds the harvest service state with thread-safe access
type Manager struct {
	mu sync.RWMutex

	currentState types.State
	runID        string
	summaries    []types.CategorySummary
	lastErr      error

	// Logs (ring buffer)
	logs    []types.LogEntry
	maxLogs int
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		currentState: types.StateIdle,
		logs:         make([]types.LogEntry, 0),
		maxLogs:      50, // Keep last 50 log entries
	}
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
}

// appendLog must be called with the lock held.
func (m *Manager) appendLog(message string) {
	m.logs = append(m.logs, types.LogEntry{
		Timestamp: time.Now(),
		Message:   message,
	})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

// BeginRun transitions to harvesting for the given run id, clearing results
// from the previous run. Returns false if a run is already in flight: the
// portal session cannot be shared, so concurrent runs are refused.
func (m *Manager) BeginRun(runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentState == types.StateHarvesting {
		return false
	}
	m.currentState = types.StateHarvesting
	m.runID = runID
	m.summaries = nil
	m.lastErr = nil
	m.appendLog("Harvest run " + runID + " started")
	return true
}

// AddSummary records one finished category's counts (thread-safe)
func (m *Manager) AddSummary(s types.CategorySummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
	m.appendLog(fmt.Sprintf("%s: %d published, %d failed", s.Category, s.Published, s.Failed))
}

// Complete transitions to the complete state
func (m *Manager) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = types.StateComplete
	m.appendLog("Harvest run " + m.runID + " complete")
}

// SetError sets the error state
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = types.StateError
	m.lastErr = err
	m.appendLog(fmt.Sprintf("Error: %v", err))
}

// GetState gets the current state (thread-safe)
func (m *Manager) GetState() types.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (m *Manager) GetStatus() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.StatusResponse{
		State:      m.currentState,
		RunID:      m.runID,
		Categories: append([]types.CategorySummary{}, m.summaries...),
		Logs:       append([]types.LogEntry{}, m.logs...), // Copy slice
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}
