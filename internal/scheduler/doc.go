// Package scheduler is the host side of suspended graph routines. It
// implements graph.Spawner, parks each routine on the Wait it yielded and
// resumes it once that wait is satisfied. Everything runs on the goroutine
// calling Tick or Run.
package scheduler
