// Package calls records method invocations for the test doubles of the
// device collaborators.
package calls

import (
	"sync"
	"time"
)

// Call records a method invocation.
type Call struct {
	Method string
	Args   []any
	Time   time.Time
}

// Log is a concurrency-safe call log. The zero value is ready to use.
type Log struct {
	mu    sync.Mutex
	calls []Call
}

// Record adds a call to the log.
func (l *Log) Record(method string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Method: method, Args: args, Time: time.Now()})
}

// Calls returns all recorded calls.
func (l *Log) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]Call, len(l.calls))
	copy(result, l.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (l *Log) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, c := range l.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Methods returns the method names in call order.
func (l *Log) Methods() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.calls))
	for i, c := range l.calls {
		names[i] = c.Method
	}
	return names
}

// LastCall returns the most recent call, or nil if none.
func (l *Log) LastCall() *Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		return nil
	}
	call := l.calls[len(l.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}
