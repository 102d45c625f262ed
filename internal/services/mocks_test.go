package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

type mockConnector struct {
	source *mockSource
	err    error
}

func (m *mockConnector) Connect(_ context.Context) (mokka.ParameterSource, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.source, nil
}

type mockSource struct {
	defaults    []mokka.DriverDefault
	overrides   []mokka.Override
	globals     map[string][]mokka.Value
	defaultsErr error
	overrideErr error
	globalErr   error
	closed      bool
}

func (m *mockSource) DriverDefaults(_ context.Context, _ string) ([]mokka.DriverDefault, error) {
	return m.defaults, m.defaultsErr
}

func (m *mockSource) ModelOverrides(_ context.Context, _ string) ([]mokka.Override, error) {
	return m.overrides, m.overrideErr
}

func (m *mockSource) GlobalDefaults(_ context.Context, name string) ([]mokka.Value, error) {
	if m.globalErr != nil {
		return nil, m.globalErr
	}
	return m.globals[name], nil
}

func (m *mockSource) Close() error {
	m.closed = true
	return nil
}

type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+": "+fmt.Sprintf(format, args...))
}

func (l *mockLogger) Verbose(format string, args ...interface{}) {
	l.record("verbose", format, args...)
}

func (l *mockLogger) Info(format string, args ...interface{}) {
	l.record("info", format, args...)
}

func (l *mockLogger) Error(format string, args ...interface{}) {
	l.record("error", format, args...)
}
