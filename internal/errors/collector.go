package errors

import (
	"sync"
	"time"
)

// SyncError records a single failed mirror copy.
type SyncError struct {
	SourcePath string
	DestPath   string
	Message    string
	Cause      error
	Timestamp  time.Time
}

// Error implements the error interface.
func (se *SyncError) Error() string {
	msg := se.SourcePath + " -> " + se.DestPath + ": " + se.Message
	if se.Cause != nil {
		msg += ": " + se.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (se *SyncError) Unwrap() error {
	return se.Cause
}

// Collector is the error-reporting channel for background tasks. Mirror poll
// ticks report copy failures here instead of stopping; consumers drain the
// collected errors on their own schedule.
type Collector struct {
	syncErrors []SyncError
	errors     []error
	mutex      sync.RWMutex
}

// NewCollector creates a new error collector.
func NewCollector() *Collector {
	return &Collector{
		syncErrors: make([]SyncError, 0),
		errors:     make([]error, 0),
	}
}

// AddSync adds a sync error to the collector.
func (c *Collector) AddSync(err SyncError) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	err.Timestamp = time.Now()
	c.syncErrors = append(c.syncErrors, err)
}

// Add adds a general error to the collector.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// SyncErrors returns all collected sync errors.
func (c *Collector) SyncErrors() []SyncError {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]SyncError, len(c.syncErrors))
	copy(result, c.syncErrors)
	return result
}

// All returns every collected error, sync and general.
func (c *Collector) All() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	all := make([]error, 0, len(c.syncErrors)+len(c.errors))
	for i := range c.syncErrors {
		all = append(all, &c.syncErrors[i])
	}
	all = append(all, c.errors...)

	return all
}

// HasErrors returns true if there are any errors.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.syncErrors) > 0 || len(c.errors) > 0
}

// Clear clears all errors.
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.syncErrors = c.syncErrors[:0]
	c.errors = c.errors[:0]
}
