package vm

import (
	"bufio"
	"io"
)

// Slot is the 64-bit value that occupies every stack position, every
// variable slot, and every widened inline literal. Instructions choose
// how to reinterpret a slot's bit pattern (unsigned, signed two's
// complement, or boolean); the slot itself carries no type tag.
type Slot = uint64

const (
	// defaultStackCapacity is reserved up front so the common case never
	// reallocates the operand stack. Growth past this capacity still
	// succeeds via append; it is just the uncommon path. See DESIGN.md's
	// Open Question decisions.
	defaultStackCapacity = 1 << 16

	// maxVars bounds how many local variable slots varres may reserve.
	// ErrAllocationFailure must be a reachable error kind; on a host where
	// slice growth can't be made to fail deterministically, this ceiling
	// is what makes the failure mode reachable and testable. See
	// DESIGN.md's Open Question decisions.
	maxVars = 1 << 20
)

// State is the VM's coarse execution status.
type State int

const (
	// StateRunning means Run/Step has not yet halted.
	StateRunning State = iota
	// StateHaltedOK means halt executed, or the PC fell off the end of
	// the program cleanly.
	StateHaltedOK
	// StateHaltedError means a RuntimeError terminated execution.
	StateHaltedError
)

// VM holds all mutable execution state for one run of a program: the
// operand stack, the local variable array, the program counter, and the
// bound input/output streams. A VM is not safe for concurrent use: there
// is exactly one logical thread of execution and no sharing across
// instances.
type VM struct {
	program []byte

	stack []Slot
	vars  []Slot
	pc    uint64

	in  *bufio.Reader
	out *bufio.Writer

	state State
	err   *RuntimeError
}

// New constructs a VM bound to program (borrowed for the lifetime of the
// instance and never mutated) and to the given input/output streams. It
// does no file loading (that is the driver's job) and takes no debug
// flag; Step is always available for single-stepping.
func New(program []byte, in io.Reader, out io.Writer) *VM {
	return &VM{
		program: program,
		stack:   make([]Slot, 0, defaultStackCapacity),
		vars:    make([]Slot, 0),
		pc:      0,
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
		state:   StateRunning,
	}
}

// PC returns the current program counter.
func (vm *VM) PC() uint64 { return vm.pc }

// State reports the VM's current execution status.
func (vm *VM) State() State { return vm.state }

// Err returns the error that halted execution, or nil if the VM is still
// running or halted cleanly.
func (vm *VM) Err() *RuntimeError { return vm.err }

// Stack exposes the operand stack for inspection (e.g. by tests); index 0
// is the bottom, the last element is the top. Callers must not retain or
// mutate the returned slice past the next Step/Run call.
func (vm *VM) Stack() []Slot { return vm.stack }

// Vars exposes the local variable array for inspection, in the same
// aliasing terms as Stack.
func (vm *VM) Vars() []Slot { return vm.vars }

// --- operand stack helpers ---

func (vm *VM) stackDepth() int { return len(vm.stack) }

func (vm *VM) push(v Slot) {
	vm.stack = append(vm.stack, v)
}

// pop removes and returns the top of stack. Callers must check stackDepth
// first; pop does not bounds-check.
func (vm *VM) pop() Slot {
	top := len(vm.stack) - 1
	v := vm.stack[top]
	vm.stack = vm.stack[:top]
	return v
}

// peekAt returns the slot at depth d from the top (0 = top itself) without
// removing anything.
func (vm *VM) peekAt(d int) Slot {
	return vm.stack[len(vm.stack)-1-d]
}

// fail records a RuntimeError at the current PC and flips the VM into the
// halted-error state. It always returns the constructed error so call
// sites can `return vm.fail(...)` from a handler.
func (vm *VM) fail(kind ErrorKind, cause error) *RuntimeError {
	e := newRuntimeError(kind, vm.pc, cause)
	vm.err = e
	vm.state = StateHaltedError
	return e
}
