// Package asm is a small line-oriented assembler for the stack VM's
// bytecode. It is deliberately not a language front end: there is no
// grammar here worth a parser-combinator library, just one mnemonic per
// line, `name:` labels, and `//` comments. Its only job is to let tests
// and cmd/gvmc express programs as text instead of hex.
package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"stackvm/vm"
)

var commentPattern = regexp.MustCompile(`//.*`)

type lineKind int

const (
	lineInstr lineKind = iota
	lineJumpRel
	lineJcondRel
)

type sourceLine struct {
	kind lineKind
	op   vm.Opcode
	arg  string // raw operand text, empty if none
	addr int    // byte address this line starts at, filled in pass 1
	size int    // byte length this line assembles to
}

// Assemble compiles source text into a bytecode program. Labels are
// declared with a trailing colon ("loop:") and referenced by name as the
// operand of jumprel/jcondrel, the two assembler-only pseudo-instructions;
// each assembles to a push32s of the PC-relative offset to the label
// followed by jump or jcond. All other opcodes take their operand (if
// any) as a plain decimal or 0x-prefixed hexadecimal integer literal.
func Assemble(source string) ([]byte, error) {
	lines, labels, err := parseLines(source)
	if err != nil {
		return nil, err
	}

	if err := layout(lines); err != nil {
		return nil, err
	}
	for name, idx := range labels {
		labels[name] = lines[idx].addr
	}

	return emit(lines, labels)
}

// parseLines strips comments/whitespace, records label -> line-index
// mappings, and returns the remaining instruction lines in order.
func parseLines(source string) ([]sourceLine, map[string]int, error) {
	labels := make(map[string]int)
	var lines []sourceLine

	for lineNum, raw := range strings.Split(source, "\n") {
		text := strings.TrimSpace(commentPattern.ReplaceAllString(raw, ""))
		if text == "" {
			continue
		}

		if strings.HasSuffix(text, ":") {
			name := strings.TrimSuffix(text, ":")
			if strings.ContainsAny(name, " \t") {
				return nil, nil, fmt.Errorf("line %d: invalid label %q", lineNum+1, text)
			}
			labels[name] = len(lines)
			continue
		}

		fields := strings.Fields(text)
		mnemonic := fields[0]
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		if len(fields) > 2 {
			return nil, nil, fmt.Errorf("line %d: too many operands: %q", lineNum+1, text)
		}

		switch mnemonic {
		case "jumprel":
			lines = append(lines, sourceLine{kind: lineJumpRel, arg: arg})
		case "jcondrel":
			lines = append(lines, sourceLine{kind: lineJcondRel, arg: arg})
		default:
			op, ok := vm.LookupMnemonic(mnemonic)
			if !ok {
				return nil, nil, fmt.Errorf("line %d: unknown mnemonic %q", lineNum+1, mnemonic)
			}
			lines = append(lines, sourceLine{kind: lineInstr, op: op, arg: arg})
		}
	}

	return lines, labels, nil
}

// layout computes each line's byte address and size in one forward pass,
// so that labels (recorded by line index during parseLines) can be
// translated into byte addresses before emit resolves operands.
func layout(lines []sourceLine) error {
	addr := 0
	for i := range lines {
		lines[i].addr = addr
		switch lines[i].kind {
		case lineJumpRel, lineJcondRel:
			lines[i].size = vm.EncodedSize(vm.OpPush32s) + vm.EncodedSize(vm.OpJump)
		default:
			lines[i].size = vm.EncodedSize(lines[i].op)
		}
		addr += lines[i].size
	}
	return nil
}

func parseIntOperand(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing operand")
	}
	base := 10
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}

func emit(lines []sourceLine, labels map[string]int) ([]byte, error) {
	var out []byte

	for _, ln := range lines {
		switch ln.kind {
		case lineJumpRel, lineJcondRel:
			target, ok := labels[ln.arg]
			if !ok {
				return nil, fmt.Errorf("unknown label %q", ln.arg)
			}
			jumpOp := vm.OpJump
			if ln.kind == lineJcondRel {
				jumpOp = vm.OpJcond
			}
			pushAddr := ln.addr
			jumpAddr := pushAddr + vm.EncodedSize(vm.OpPush32s)
			offset := int64(target) - int64(jumpAddr) - 1
			out = append(out, vm.Encode(vm.Instruction{Op: vm.OpPush32s, Arg: uint64(uint32(int32(offset)))})...)
			out = append(out, vm.Encode(vm.Instruction{Op: jumpOp})...)

		default:
			var arg uint64
			if ln.arg != "" {
				v, err := parseIntOperand(ln.arg)
				if err != nil {
					return nil, fmt.Errorf("bad operand for %s: %w", ln.op, err)
				}
				arg = uint64(v)
			}
			out = append(out, vm.Encode(vm.Instruction{Op: ln.op, Arg: arg})...)
		}
	}

	return out, nil
}
