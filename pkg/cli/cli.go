// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v2"

	"github.com/netchecks/netchecks/pkg/confopt"
)

// Common defines the command line options every check accepts.
type Common struct {
	Output     string `short:"o" long:"output" choice:"text" choice:"json" description:"report format" yaml:"output,omitempty" json:"output"`
	Debug      bool   `short:"d" long:"debug" description:"debug mode" yaml:"debug,omitempty" json:"debug"`
	ConfigFile string `long:"config" description:"YAML file with option values, command line flags take precedence" yaml:"-" json:"-"`
	Version    bool   `short:"v" long:"version" description:"display the version and exit" yaml:"-" json:"-"`
}

// Device defines the options of checks that open a management session to a network device.
type Device struct {
	Host     string           `short:"H" long:"host" description:"device hostname or IP address" yaml:"host" json:"host"`
	Username string           `short:"u" long:"username" description:"login username" yaml:"username" json:"username"`
	Password string           `short:"p" long:"password" env:"NETCHECK_PASSWORD" default-mask:"-" description:"login password" yaml:"password" json:"-"`
	Port     int              `short:"P" long:"port" description:"management port (0 means the transport default)" yaml:"port,omitempty" json:"port"`
	Timeout  confopt.Duration `short:"t" long:"timeout" description:"connect and query timeout" yaml:"timeout,omitempty" json:"timeout"`
}

// Address joins the host with the configured port, or with defaultPort when none is set.
func (d Device) Address(defaultPort int) string {
	port := d.Port
	if port == 0 {
		port = defaultPort
	}
	// net.JoinHostPort expects literal IPv6 address, it adds []
	host := strings.Trim(d.Host, "[]")
	return net.JoinHostPort(host, strconv.Itoa(port))
}

type configFileOption struct {
	ConfigFile string `long:"config"`
}

// Parse fills cfg from an optional YAML config file and the command line.
// cfg must be a pointer to a struct with go-flags and yaml tags.
func Parse(name string, args []string, cfg any) error {
	path, err := lookupConfigFile(args)
	if err != nil {
		return err
	}
	if path != "" {
		if err := loadConfigFile(path, cfg); err != nil {
			return err
		}
	}

	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = name
	parser.Usage = "[OPTIONS]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	return nil
}

// IsHelp reports whether err is the help message produced by -h/--help.
func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}

func lookupConfigFile(args []string) (string, error) {
	var opt configFileOption

	parser := flags.NewParser(&opt, flags.IgnoreUnknown|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return "", err
	}

	return opt.ConfigFile, nil
}

func loadConfigFile(path string, cfg any) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %v", err)
	}
	if err := yaml.UnmarshalStrict(bs, cfg); err != nil {
		return fmt.Errorf("config file '%s': %v", path, err)
	}
	return nil
}
