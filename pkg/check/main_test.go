// SPDX-License-Identifier: GPL-3.0-or-later

package check

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netchecks/netchecks/pkg/cli"
)

type testConfig struct {
	cli.Common `yaml:",inline"`
	Host       string `short:"H" long:"host" yaml:"host"`
}

type testRunner struct {
	cfg *testConfig

	opened  int
	initErr error
	report  func() *Report
}

func (r *testRunner) Init() error {
	if r.initErr != nil {
		return r.initErr
	}
	if r.cfg.Host == "" {
		return NewConfigError("host", "required")
	}
	return nil
}

func (r *testRunner) Target() string { return r.cfg.Host }

func (r *testRunner) Run(context.Context) *Report {
	r.opened++
	return r.report()
}

func newTestProgram(runner *testRunner, out *bytes.Buffer) Program {
	return Program{
		Name:   "test-check",
		Config: runner.cfg,
		Common: &runner.cfg.Common,
		Runner: runner,
		Stdout: out,
		Now:    func() time.Time { return testTime },
	}
}

func TestMain_ExitCodes(t *testing.T) {
	tests := map[string]struct {
		args       []string
		initErr    error
		report     func() *Report
		wantExit   int
		wantOpened int
		wantOutput string
	}{
		"success": {
			args: []string{"-H", "192.0.2.1"},
			report: func() *Report {
				r := NewReport("test-check", "192.0.2.1", testTime)
				r.Summary = "all good"
				return r
			},
			wantExit:   ExitSuccess,
			wantOpened: 1,
			wantOutput: "TEST-CHECK SUCCESS - all good",
		},
		"failure": {
			args: []string{"-H", "192.0.2.1"},
			report: func() *Report {
				r := NewReport("test-check", "192.0.2.1", testTime)
				r.Fail("neighbor 192.0.2.2 is Idle")
				return r
			},
			wantExit:   ExitFailure,
			wantOpened: 1,
			wantOutput: "neighbor 192.0.2.2 is Idle",
		},
		"missing required field": {
			args:       nil,
			wantExit:   ExitConfiguration,
			wantOpened: 0,
			wantOutput: "invalid 'host': required",
		},
		"unknown flag": {
			args:       []string{"--no-such-flag"},
			wantExit:   ExitConfiguration,
			wantOpened: 0,
			wantOutput: "configuration error",
		},
		"positional argument": {
			args:       []string{"-H", "192.0.2.1", "extra"},
			wantExit:   ExitConfiguration,
			wantOpened: 0,
			wantOutput: "unexpected arguments: extra",
		},
		"untyped init error": {
			args:       []string{"-H", "192.0.2.1"},
			initErr:    errors.New("bad combination"),
			wantExit:   ExitConfiguration,
			wantOpened: 0,
			wantOutput: "bad combination",
		},
		"help": {
			args:       []string{"--help"},
			wantExit:   ExitSuccess,
			wantOpened: 0,
			wantOutput: "Usage:",
		},
		"version": {
			args:       []string{"--version"},
			wantExit:   ExitSuccess,
			wantOpened: 0,
			wantOutput: "test-check, version:",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			runner := &testRunner{cfg: &testConfig{}, initErr: test.initErr, report: test.report}

			code := Main(newTestProgram(runner, &out), test.args)

			assert.Equal(t, test.wantExit, code)
			assert.Equal(t, test.wantOpened, runner.opened)
			assert.Contains(t, out.String(), test.wantOutput)
		})
	}
}

func TestMain_JSONConfigurationError(t *testing.T) {
	var out bytes.Buffer
	runner := &testRunner{cfg: &testConfig{}}

	code := Main(newTestProgram(runner, &out), []string{"-o", "json"})

	require.Equal(t, ExitConfiguration, code)
	assert.Contains(t, out.String(), `"kind": "configuration"`)
	assert.Contains(t, out.String(), `"success": false`)
	assert.Equal(t, 0, runner.opened)
}
