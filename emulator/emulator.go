// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"log"

	"github.com/ezrec/fpvm/config"
	"github.com/ezrec/fpvm/cpu"
	"github.com/ezrec/fpvm/io"
)

// Emulator state. CPU + program + console.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program.
	MaxTicks int          // If non-zero, the run is stopped after this many ticks.

	Console io.Console // Console IO channel.
}

// NewEmulator creates a new emulator.
func NewEmulator(cfg config.Machine) (emu *Emulator) {
	emu = &Emulator{
		Verbose:  cfg.Verbose,
		Cpu:      cpu.NewCpu(cfg.Limits()),
		Program:  &cpu.Program{},
		MaxTicks: cfg.MaxTicks,
	}

	emu.Cpu.Console = &emu.Console

	return
}

// Reset loads the program and resets the machine and console.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false

	err = emu.Cpu.Load(emu.Program)
	if err != nil {
		return
	}

	emu.Cpu.Reset()
	emu.Console.Rewind()

	if emu.Verbose {
		log.Printf("emulator: %d instructions, %d symbols", emu.Cpu.Codes(), len(emu.Program.Symbols))
	}

	emu.Cpu.Verbose = emu.Verbose

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Function returns the name of the function containing the program count.
func (emu *Emulator) Function() string {
	return emu.Program.Debug(emu.Cpu.Pc).Name
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.FetchCode()
	return code
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, Function: emu.Program.Debug(pc).Name, Err: err}
		}
	}()

	if emu.MaxTicks > 0 && emu.Cpu.Ticks >= emu.MaxTicks {
		err = ErrTickLimit
		return
	}

	done, err = emu.Cpu.Tick()
	return
}

// Run ticks until the outermost RET, or an error.
func (emu *Emulator) Run() (err error) {
	for {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			break
		}
	}

	if emu.Verbose {
		log.Printf("emulator: %d ticks", emu.Cpu.Ticks)
	}

	return
}
