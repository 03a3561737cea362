// Package config handles the fpvm.toml machine and assembler configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/fpvm/cpu"
)

const FILENAME = "fpvm.toml" // Default configuration file name.

// Config is the whole fpvm.toml file.
type Config struct {
	Machine   Machine   `toml:"machine"`
	Assembler Assembler `toml:"assembler"`
}

// Machine sizes the emulated machine.
type Machine struct {
	StackSize     int  `toml:"stack_size"`
	CallStackSize int  `toml:"call_stack_size"`
	MemorySize    int  `toml:"memory_size"`
	MaxTicks      int  `toml:"max_ticks"` // Zero runs until RET.
	Verbose       bool `toml:"verbose"`
}

// Assembler configures program builds.
type Assembler struct {
	Capacity int  `toml:"capacity"` // Program buffer size in words.
	EntryPc  int  `toml:"entry_pc"`
	Verbose  bool `toml:"verbose"`
}

// Default returns the configuration of the reference interpreter.
func Default() (cfg Config) {
	cfg.Machine = Machine{
		StackSize:     cpu.STACK_LIMIT,
		CallStackSize: cpu.CALL_STACK_LIMIT,
		MemorySize:    cpu.MEMORY_LIMIT,
	}
	cfg.Assembler = Assembler{
		Capacity: cpu.CAPACITY,
		EntryPc:  cpu.ENTRY_PC,
	}
	return
}

// Limits returns the cpu limits of the machine.
func (m Machine) Limits() cpu.Limits {
	return cpu.Limits{
		Stack:     m.StackSize,
		CallStack: m.CallStackSize,
		Memory:    m.MemorySize,
	}
}

// Parse decodes a TOML document. Missing or zero sizes take their defaults.
func Parse(data string) (cfg Config, err error) {
	_, err = toml.Decode(data, &cfg)
	if err != nil {
		return
	}

	err = cfg.fill()
	return
}

// Load reads a configuration file.
func Load(path string) (cfg Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("cannot read %s: %w", path, err)
		return
	}

	cfg, err = Parse(string(data))
	if err != nil {
		err = fmt.Errorf("parse error in %s: %w", path, err)
	}
	return
}

// fill applies defaults and validates the sizes.
func (cfg *Config) fill() error {
	def := Default()

	sizes := []struct {
		name  string
		value *int
		def   int
	}{
		{"machine.stack_size", &cfg.Machine.StackSize, def.Machine.StackSize},
		{"machine.call_stack_size", &cfg.Machine.CallStackSize, def.Machine.CallStackSize},
		{"machine.memory_size", &cfg.Machine.MemorySize, def.Machine.MemorySize},
		{"machine.max_ticks", &cfg.Machine.MaxTicks, 0},
		{"assembler.capacity", &cfg.Assembler.Capacity, def.Assembler.Capacity},
		{"assembler.entry_pc", &cfg.Assembler.EntryPc, def.Assembler.EntryPc},
	}

	for _, size := range sizes {
		if *size.value < 0 {
			return fmt.Errorf("%s: %w", size.name, ErrNegative)
		}
		if *size.value == 0 {
			*size.value = size.def
		}
	}

	if cfg.Assembler.EntryPc >= cfg.Assembler.Capacity {
		return fmt.Errorf("assembler.entry_pc: %w", ErrEntryCapacity)
	}

	return nil
}
