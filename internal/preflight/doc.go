// Package preflight validates the environment of a wikimg build before any
// store is opened.
//
// The package checks:
//   - Input dumps exist, are regular files and can be read
//   - The disk index directory can be created and written to
//   - Free disk space under the index directory (minimum 100MB)
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, preflight.Target{Inputs: paths, DataDir: dir})
//	if err := checker.Err(results); err != nil {
//	    // Abort the build
//	}
package preflight
