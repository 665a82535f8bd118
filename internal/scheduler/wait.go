package scheduler

import "time"

// Ticks resumes a routine after the given number of scheduler ticks.
type Ticks int

// Duration resumes a routine once the given wall time has passed.
type Duration time.Duration

// Until resumes a routine on the first tick its predicate returns true.
type Until func() bool
