// Package interceptors provides ready-made request interceptors for the
// dispatch pipeline. The two bundled interceptors double as reference
// implementations of the pipeline's calling conventions: RequestID uses
// the continuation-object style, Recovery the legacy
// continuation-function style. Piped into the same chain they behave
// identically to each other's convention.
package interceptors
