// Package pkg provides the core libraries for autoinstall.
//
// # Overview
//
// autoinstall keeps the dependencies declared in a JavaScript or TypeScript
// project's package.json in step with the modules its source files actually
// import. Packages that are imported but not declared are installed, and
// declared packages that no file imports any more are removed. The pkg
// directory is organized into three areas:
//
//  1. Model: [modules], [reconcile], [classify], [store]
//  2. Inputs: [manifest], [source], [discover], [config]
//  3. Execution: [command], [planner], [scanner]
//
// Supporting packages provide structured errors ([errors]), a parse cache
// ([cache]), instrumentation hooks ([observability]) and build metadata
// ([buildinfo]).
//
// # Architecture
//
// The data flow for a full scan:
//
//	package.json ──► [manifest] ──► installed modules ─┐
//	                                                   ├─► [store] ──► [reconcile]
//	source files ──► [discover] ──► [source] ──► used ─┘        │
//	                                                            ▼
//	                                          [planner] ──► [command] ──► yarn/npm
//
// Incremental updates follow the same path for one file: [scanner.Scanner.Edit]
// re-parses a file and diffs its import set against the previous one, while
// [scanner.Scanner.Delete] drops the file's attribution entirely.
//
// # Quick Start
//
//	st := store.New(root)
//	pl := planner.New(st, planner.Options{Manager: command.NPM, DryRun: true})
//	sc := scanner.New(st, pl, scanner.Options{})
//
//	res, err := sc.Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, line := range res.Report.Planned {
//	    fmt.Println(line)
//	}
//
// # Command Line
//
// The autoinstall binary in cmd/autoinstall wraps these packages:
//
//	autoinstall scan [dir]      # reconcile once and exit
//	autoinstall status [dir]    # show the four collections
//	autoinstall watch [dir]     # reconcile on every file change
//	autoinstall cache clear     # drop cached parse results
//
// [modules]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/modules
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/reconcile
// [classify]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/classify
// [store]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/store
// [manifest]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/manifest
// [source]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/source
// [discover]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/discover
// [config]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/config
// [command]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/command
// [planner]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/planner
// [scanner]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/scanner
// [scanner.Scanner.Edit]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/scanner#Scanner.Edit
// [scanner.Scanner.Delete]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/scanner#Scanner.Delete
// [errors]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/errors
// [cache]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/autoinstall/pkg/buildinfo
package pkg
