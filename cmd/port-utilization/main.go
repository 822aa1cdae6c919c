// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/netchecks/netchecks/checks/portutil"
	"github.com/netchecks/netchecks/pkg/check"
)

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	c := portutil.New()

	os.Exit(check.Main(check.Program{
		Name:   portutil.Name,
		Config: &c.Config,
		Common: &c.Common,
		Runner: c,
	}, os.Args[1:]))
}
