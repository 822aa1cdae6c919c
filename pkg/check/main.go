// SPDX-License-Identifier: GPL-3.0-or-later

package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/netchecks/netchecks/logger"
	"github.com/netchecks/netchecks/pkg/buildinfo"
	"github.com/netchecks/netchecks/pkg/cli"
)

// Runner is implemented by every check.
type Runner interface {
	// Init validates the configuration. It must not perform any I/O.
	Init() error
	// Target names what the check talks to, for reports.
	Target() string
	// Run opens the session, queries and classifies.
	Run(ctx context.Context) *Report
}

// Program wires a check into a command line program.
type Program struct {
	Name   string
	Config any
	Common *cli.Common
	Runner Runner

	Stdout io.Writer
	Now    func() time.Time
}

// Main parses args into the program config, runs the check and writes the
// report to stdout. It returns the process exit code.
func Main(p Program, args []string) int {
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	if err := cli.Parse(p.Name, args, p.Config); err != nil {
		if cli.IsHelp(err) {
			_, _ = fmt.Fprintln(p.Stdout, err)
			return ExitSuccess
		}
		return p.fail(&ConfigError{Reason: err.Error()})
	}

	if p.Common.Version {
		_, _ = fmt.Fprintf(p.Stdout, "%s, version: %s\n", p.Name, buildinfo.Version)
		return ExitSuccess
	}

	if lvl := os.Getenv("NETCHECK_LOG_LEVEL"); lvl != "" {
		logger.Level.SetByName(lvl)
	}
	if p.Common.Debug {
		logger.Level.Set(slog.LevelDebug)
	}

	if err := p.Runner.Init(); err != nil {
		if !isTyped(err) {
			err = &ConfigError{Reason: err.Error()}
		}
		return p.fail(err)
	}

	rep := p.Runner.Run(context.Background())

	return p.write(rep)
}

func (p Program) fail(err error) int {
	target := ""
	if p.Runner != nil {
		target = p.Runner.Target()
	}
	logger.Errorf("%s: %v", p.Name, err)
	return p.write(ErrorReport(p.Name, target, p.Now(), err))
}

func (p Program) write(rep *Report) int {
	if err := rep.Write(p.Stdout, p.Common.Output); err != nil {
		_ = rep.WriteText(p.Stdout)
	}
	return rep.ExitCode()
}
