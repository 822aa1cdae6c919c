// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netchecks/netchecks/pkg/confopt"
)

var (
	dataConfigYAML, _           = os.ReadFile("testdata/config.yaml")
	dataConfigUnknownKeyYAML, _ = os.ReadFile("testdata/config-unknown-key.yaml")
)

func Test_testDataIsValid(t *testing.T) {
	for name, data := range map[string][]byte{
		"dataConfigYAML":           dataConfigYAML,
		"dataConfigUnknownKeyYAML": dataConfigUnknownKeyYAML,
	} {
		require.NotNil(t, data, name)
	}
}

type testConfig struct {
	Common   `yaml:",inline"`
	Device   `yaml:",inline"`
	Neighbor string `short:"n" long:"neighbor" yaml:"neighbor,omitempty"`
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		args     []string
		env      map[string]string
		want     testConfig
		wantFail bool
		wantHelp bool
	}{
		"short flags": {
			args: []string{"-H", "192.0.2.1", "-u", "admin", "-p", "secret", "-n", "198.51.100.7"},
			want: testConfig{
				Device:   Device{Host: "192.0.2.1", Username: "admin", Password: "secret"},
				Neighbor: "198.51.100.7",
			},
		},
		"long flags with timeout and output": {
			args: []string{"--host=192.0.2.1", "--username", "admin", "--timeout", "5s", "--output", "json", "--debug"},
			want: testConfig{
				Common: Common{Output: "json", Debug: true},
				Device: Device{Host: "192.0.2.1", Username: "admin", Timeout: durationSec(5)},
			},
		},
		"password from env": {
			args: []string{"-H", "192.0.2.1"},
			env:  map[string]string{"NETCHECK_PASSWORD": "from-env"},
			want: testConfig{Device: Device{Host: "192.0.2.1", Password: "from-env"}},
		},
		"config file with flag override": {
			args: []string{"--config", "testdata/config.yaml", "-u", "admin"},
			want: testConfig{
				Common:   Common{ConfigFile: "testdata/config.yaml"},
				Device:   Device{Host: "192.0.2.1", Username: "admin", Password: "from-file", Port: 2222, Timeout: durationSec(3)},
				Neighbor: "198.51.100.7",
			},
		},
		"config file with unknown key": {
			args:     []string{"--config", "testdata/config-unknown-key.yaml"},
			wantFail: true,
		},
		"missing config file": {
			args:     []string{"--config", "testdata/nope.yaml"},
			wantFail: true,
		},
		"invalid output choice": {
			args:     []string{"-H", "192.0.2.1", "--output", "xml"},
			wantFail: true,
		},
		"unknown flag": {
			args:     []string{"--hots", "192.0.2.1"},
			wantFail: true,
		},
		"positional arguments": {
			args:     []string{"-H", "192.0.2.1", "extra"},
			wantFail: true,
		},
		"help": {
			args:     []string{"--help"},
			wantFail: true,
			wantHelp: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			var cfg testConfig
			err := Parse("test", test.args, &cfg)

			if test.wantFail {
				require.Error(t, err)
				assert.Equal(t, test.wantHelp, IsHelp(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.want, cfg)
		})
	}
}

func TestDevice_Address(t *testing.T) {
	tests := map[string]struct {
		dev  Device
		want string
	}{
		"default port":    {dev: Device{Host: "192.0.2.1"}, want: "192.0.2.1:22"},
		"configured port": {dev: Device{Host: "192.0.2.1", Port: 2222}, want: "192.0.2.1:2222"},
		"ipv6 brackets":   {dev: Device{Host: "[2001:db8::1]"}, want: "[2001:db8::1]:22"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, test.dev.Address(22))
		})
	}
}

func durationSec(n int) confopt.Duration {
	return confopt.Duration(time.Duration(n) * time.Second)
}
