// Package pkgroutine contains helpers for running goroutines safely.
//
// The Manager type limits concurrency, collects returned errors, and turns
// panics into ErrPanic so a bad input in one task does not crash the process.
package pkgroutine
