//go:build (amd64 || arm64) && !noasm

package chunkring

// cpuRelax executes a single spin-wait hint: PAUSE on amd64, YIELD on arm64.
// Being an assembly call it is never optimized out of spin loops.
//
//go:noescape
func cpuRelax()
