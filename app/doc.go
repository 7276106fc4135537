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

// Package app assembles a dispatcher from [Settings]: it registers the
// built-in middleware and filters, builds the negotiator, normalizer and
// transport writer, and serves the result with graceful shutdown.
//
//	settings, err := app.LoadSettings(ctx, config.WithOptionalFile("dispatch.yaml"), config.WithEnv("DISPATCH_"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	a, err := app.New(settings)
//	if err != nil {
//		log.Fatal(err)
//	}
//	a.GET("/widgets/{id:[0-9]+}", showWidget, route.WithName("widgets.show"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := a.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package app
