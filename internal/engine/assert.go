package engine

import "fmt"

// assertf panics with a formatted message when cond is false. Call sites
// guard it with debugAssertions so release builds drop the check and its
// argument boxing entirely.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("bulkspline: assertion failed: " + fmt.Sprintf(format, args...))
	}
}
