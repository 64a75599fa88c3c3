//go:build cgo

package prover

// The rapidsnark static library ships assembly objects without a
// .note.GNU-stack section, which makes the linker warn about an executable
// stack.

/*
#cgo LDFLAGS: -Wl,-z,noexecstack
*/
import "C"
