package runner

import (
	"context"
	"sync"
)

// MockRunner records every invocation in order and replays canned
// results, keyed by the full command line. Safe for concurrent use so
// it can stand in for ExecRunner under a worker pool.
type MockRunner struct {
	Commands     []MockCommand
	Responses    map[string]MockResponse
	ResponseFunc func(name string, args ...string) (Result, error)

	mu sync.Mutex
}

type MockCommand struct {
	Name string
	Args []string
	Opts Options
}

type MockResponse struct {
	Result Result
	Error  error
}

func NewMockRunner() *MockRunner {
	return &MockRunner{
		Commands:  []MockCommand{},
		Responses: make(map[string]MockResponse),
	}
}

func (m *MockRunner) Run(
	_ context.Context,
	opts Options,
	name string,
	args ...string,
) (Result, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, MockCommand{
		Name: name,
		Args: args,
		Opts: opts,
	})
	resp, ok := m.Responses[cmdKey(name, args...)]
	fn := m.ResponseFunc
	m.mu.Unlock()

	if ok {
		return resp.Result, resp.Error
	}
	if fn != nil {
		return fn(name, args...)
	}
	return Result{}, nil
}

func (m *MockRunner) AddResponse(key string, res Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[key] = MockResponse{Result: res, Error: err}
}

func cmdKey(name string, args ...string) string {
	key := name
	for _, arg := range args {
		key += "|" + arg
	}
	return key
}

func (m *MockRunner) VerifyCommand(name string, args ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cmd := range m.Commands {
		if cmd.Name == name && argsEqual(cmd.Args, args) {
			return true
		}
	}
	return false
}

func (m *MockRunner) VerifyRunCount(name string, count int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	runCount := 0
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			runCount++
		}
	}
	return runCount == count
}

func argsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
