// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import "flag"

var (
	flagGops                               bool
	flagConfigFile, flagEnvFile, flagLevel string
)

func cliInit() {
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Path to the edge node `config.json`")
	flag.StringVar(&flagEnvFile, "env", "./.env", "Path to an optional `.env` overlay for secrets referenced from config.json")
	flag.StringVar(&flagLevel, "loglevel", "info", "Sets the logging level: `[debug, info, warn, err, crit]`")
	flag.Parse()
}
