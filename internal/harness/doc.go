// Package harness runs the default-export compatibility cases.
//
// For every tuple of the option matrix the runner:
//
//  1. creates the case archive directory and writes testCase.json,
//  2. renders my-module.js, my-module.d.ts and user.ts into the working
//     dist directory and archives a copy of each,
//  3. compiles user.ts with tsc and the case's --target, --esModuleInterop
//     and --module flags,
//  4. runs the emitted user.js with node and the case's runtime options,
//  5. classifies the outcome.
//
// # Outcomes
//
// There are two tiers of failure:
//
//   - Case failures: the compiler or the program exits with a nonzero
//     status. The case is marked FAIL, the captured output goes to
//     TestCase.Error and error.log, and the run continues.
//   - Harness failures: file system errors, a process that cannot be
//     started, cancellation, or a program that exits with status 0 without
//     printing the marker. These are returned as *FatalError or
//     *MarkerError and end the run; the caller decides how to terminate.
//
// # Determinism
//
// Cases run strictly one after another and share the same dist paths, so
// they are isolated in time rather than in space. Ids follow the matrix
// product order, which makes two runs of the same matrix line up id by id.
// Progress timing goes through clock.Clock so tests can use a stepped clock.
//
// # Usage
//
//	runner := harness.NewRunner(harness.Config{
//	    DistDir:    "dist",
//	    ResultsDir: "results",
//	    Node:       "node",
//	    TscScript:  "node_modules/typescript/bin/tsc",
//	}, render.Default(), &process.Exec{Redact: projectDir})
//
//	cases, err := runner.RunAll(ctx, matrix.Default())
//	if err != nil {
//	    return err
//	}
package harness
