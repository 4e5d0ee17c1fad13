package export

import (
	"context"
	"sync"
)

// MemoryAuditLogger retains audit entries in memory. Intended for tests and
// local development.
type MemoryAuditLogger struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemoryAuditLogger constructs an empty in-memory audit logger.
func NewMemoryAuditLogger() *MemoryAuditLogger {
	return &MemoryAuditLogger{}
}

// Record appends an entry to the trail.
func (l *MemoryAuditLogger) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded trail in append order.
func (l *MemoryAuditLogger) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}
