// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
// The package provides:
//  1. The remote store gateway (see Gateway and HTTPGateway): plain
//     get/put of JSON documents addressed as {base}/{path}.json, with a
//     per-request timeout. Failures never surface as errors: Get returns nil
//     and Set returns false.
//  2. A change-detection poll loop (see HTTPGateway.Poll) that reports a
//     document whenever its raw value differs from the previous observation.
//  3. Connectivity signals (see Connectivity, Watcher, HTTPProber and
//     GRPCHealthProber) used to skip network work while offline.
//  4. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Concurrency & Contexts
//
// All types are safe for concurrent use. Blocking operations accept a
// context.Context and honor cancellation.
package client
