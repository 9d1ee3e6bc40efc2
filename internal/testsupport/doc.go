// Package testsupport builds throwaway configurations, stub tool binaries
// and job stores for package tests.
package testsupport
