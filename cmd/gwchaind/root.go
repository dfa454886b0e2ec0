// Copyright 2024 The Gwchain Authors
// This file is part of Gwchain.
//
// Gwchain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gwchain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Gwchain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"

	"github.com/spf13/cobra"

	gwlog "github.com/godwokenrises/gwchain/log"
)

// globalFlags are the persistent flags every subcommand shares,
// mirroring Erigon's own "erigon ..." root command's --datadir/
// --log.* persistent flag set.
type globalFlags struct {
	datadir     string
	configPath  string
	logLevel    string
	logFormat   string
	metricsAddr string
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gwchaind",
		Short: "gwchaind runs the Godwoken-style rollup state engine",
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.datadir, "datadir", "", "data directory (empty uses an in-memory store)")
	pf.StringVar(&flags.configPath, "config", "", "path to the node's rollup/genesis/fork YAML config")
	pf.StringVar(&flags.logLevel, "log.level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log.format", "terminal", "log format: terminal or json")
	pf.StringVar(&flags.metricsAddr, "metrics.addr", "127.0.0.1:9090", "address to serve Prometheus metrics on")

	root.AddCommand(newStartCmd())
	root.AddCommand(newExportBlockCmd())
	root.AddCommand(newRewindCmd())
	return root
}

// newRootLogger builds the logger every subcommand's Run func derives
// component loggers from, per --log.level/--log.format.
func newRootLogger() (gwlog.Logger, error) {
	lvl, err := gwlog.ParseLvl(flags.logLevel)
	if err != nil {
		return nil, err
	}
	format := gwlog.TerminalFormat
	if flags.logFormat == "json" {
		format = gwlog.JSONFormat
	}
	handler := gwlog.LvlFilterHandler(lvl, gwlog.NewStreamHandler(os.Stderr, format))
	return gwlog.New(handler), nil
}
