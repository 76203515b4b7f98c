// Command gvmc is the external driver: it loads a program (raw bytecode,
// or text assembly with -asm), binds the VM to OS stdin/stdout, runs it
// to completion, and reports the result. It keeps the flag-based CLI and
// single-step debug mode entirely outside the vm package itself.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"stackvm/asm"
	"stackvm/disasm"
	"stackvm/vm"
)

var (
	asmSource   = flag.Bool("asm", false, "treat the input file as assembly text instead of raw bytecode")
	debugStep   = flag.Bool("debug", false, "single-step through the program, printing state after each instruction")
	disassemble = flag.Bool("disasm", false, "print a disassembly of the program instead of running it")
)

func loadProgram(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if *asmSource {
		return asm.Assemble(string(raw))
	}
	return raw, nil
}

func runDebug(v *vm.VM) {
	reader := bufio.NewReader(os.Stdin)
	for v.State() == vm.StateRunning {
		fmt.Printf("pc=%d stack=%v vars=%v\n", v.PC(), v.Stack(), v.Vars())
		fmt.Print("-> (enter to step, q to quit) ")
		line, _ := reader.ReadString('\n')
		if len(line) > 0 && line[0] == 'q' {
			return
		}
		if err := v.Step(); err != nil {
			fmt.Println(err)
			return
		}
	}
	if err := v.Err(); err != nil {
		fmt.Println(err)
	}
}

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Usage: gvmc [-asm] [-debug] [-disasm] <program file>")
		os.Exit(1)
	}

	program, err := loadProgram(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *disassemble {
		fmt.Print(disasm.Format(disasm.Disassemble(program)))
		return
	}

	v := vm.New(program, os.Stdin, os.Stdout)

	if *debugStep {
		runDebug(v)
		if v.State() == vm.StateHaltedError {
			os.Exit(1)
		}
		return
	}

	if rerr := v.Run(); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr)
		os.Exit(1)
	}
}
