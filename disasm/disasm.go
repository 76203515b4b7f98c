// Package disasm is a minimal disassembler for the stack VM's bytecode.
// It is a pure tooling consumer of the codec: it reports reserved opcodes
// as a distinct variant rather than treating them as an error, and is
// never imported by the vm package itself.
package disasm

import (
	"fmt"
	"strings"

	"stackvm/vm"
)

// Line is one decoded instruction, annotated with the byte offset it
// starts at and whether its opcode is reserved.
type Line struct {
	Addr       int
	Instr      vm.Instruction
	Reserved   bool
	Malformed  bool
	DecodeErr  error
}

// Disassemble walks program from offset 0, decoding one instruction at a
// time until it runs out of bytes or hits a truncated literal. A
// truncated final instruction is reported as a Malformed line rather than
// aborting the whole listing, since a disassembler's job is to show as
// much as it can.
func Disassemble(program []byte) []Line {
	var lines []Line
	offset := 0
	for offset < len(program) {
		instr, next, err := vm.Decode(program, offset)
		if err != nil {
			lines = append(lines, Line{Addr: offset, Malformed: true, DecodeErr: err})
			break
		}
		lines = append(lines, Line{
			Addr:     offset,
			Instr:    instr,
			Reserved: instr.Op.IsReserved(),
		})
		offset = next
	}
	return lines
}

// Format renders a disassembly as "addr: mnemonic [arg]" lines, marking
// reserved opcodes so a reader can tell a real no-op opcode apart from one
// that merely has no operand.
func Format(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		if l.Malformed {
			fmt.Fprintf(&b, "%d: <truncated: %s>\n", l.Addr, l.DecodeErr)
			continue
		}
		marker := ""
		if l.Reserved {
			marker = " (reserved)"
		}
		fmt.Fprintf(&b, "%d: %s%s\n", l.Addr, l.Instr, marker)
	}
	return b.String()
}
