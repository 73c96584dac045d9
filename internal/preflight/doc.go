// Package preflight provides readiness checks for the external services and
// filesystem paths the pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunFeatureChecks once at startup, before the worker
//     pool begins claiming jobs. A failed check aborts startup so jobs are
//     never burned against an unreachable backend.
//   - The CLI status command uses the individual check functions to display
//     service health.
package preflight
