package evaluator

import "time"

// sleep10ms is the poll interval for `wait for <variable>` (spec
// §4.4.12). A seam so tests aren't forced to actually burn 10s on the
// worst-case 1000-iteration timeout path.
var sleep10ms = func() { time.Sleep(10 * time.Millisecond) }
