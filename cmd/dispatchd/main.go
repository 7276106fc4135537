// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command dispatchd serves a small widgets API through the dispatch
// pipeline.
//
//	dispatchd --config dispatch.yaml
//
// Settings are read from the optional config file and from DISPATCH_
// environment variables, nested with "__" (DISPATCH_SERVER__ADDR=:9000).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rivaas.dev/dispatch/app"
	"rivaas.dev/dispatch/config"
)

const envPrefix = "DISPATCH_"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dispatchd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a YAML, TOML or JSON settings file")
	consulKey := flag.String("consul-key", "", "Consul KV key holding settings (requires CONSUL_HTTP_ADDR)")
	routes := flag.Bool("routes", false, "Print the route table and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources := []config.Option{}
	if *configPath != "" {
		sources = append(sources, config.WithFile(*configPath))
	}
	if *consulKey != "" {
		sources = append(sources, config.WithConsul(*consulKey))
	}
	sources = append(sources, config.WithEnv(envPrefix))

	settings, err := app.LoadSettings(ctx, sources...)
	if err != nil {
		return err
	}

	a, err := app.New(settings)
	if err != nil {
		return err
	}
	if err := mountWidgets(a); err != nil {
		return err
	}

	if *routes {
		a.PrintRoutes(os.Stdout)
		return nil
	}

	return a.Run(ctx)
}
