//go:build !bulksplinedebug

package engine

const debugAssertions = false
