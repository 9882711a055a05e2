//go:build !(amd64 || arm64) || noasm

package chunkring

// cpuRelax is an opaque no-op on targets without a spin-wait hint; noinline
// keeps spin loops from being folded away.
//
//go:noinline
func cpuRelax() {}
