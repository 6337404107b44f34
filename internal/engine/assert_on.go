//go:build bulksplinedebug

package engine

// debugAssertions enables internal consistency checks. Build with
// -tags bulksplinedebug to turn them on.
const debugAssertions = true
