package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/fpvm/cpu"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.Equal(cpu.DefaultLimits(), cfg.Machine.Limits())
	assert.Equal(0, cfg.Machine.MaxTicks)
	assert.Equal(cpu.CAPACITY, cfg.Assembler.Capacity)
	assert.Equal(cpu.ENTRY_PC, cfg.Assembler.EntryPc)

	parsed, err := Parse("")
	assert.NoError(err)
	assert.Equal(cfg, parsed)
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Parse(`
[machine]
stack_size = 16
max_ticks = 1000
verbose = true

[assembler]
entry_pc = 200
`)
	assert.NoError(err)
	assert.Equal(16, cfg.Machine.StackSize)
	assert.Equal(cpu.CALL_STACK_LIMIT, cfg.Machine.CallStackSize)
	assert.Equal(cpu.MEMORY_LIMIT, cfg.Machine.MemorySize)
	assert.Equal(1000, cfg.Machine.MaxTicks)
	assert.True(cfg.Machine.Verbose)
	assert.Equal(200, cfg.Assembler.EntryPc)
	assert.Equal(cpu.CAPACITY, cfg.Assembler.Capacity)
	assert.False(cfg.Assembler.Verbose)
}

func TestParse_Errors(t *testing.T) {
	assert := assert.New(t)

	_, err := Parse("[machine]\nstack_size = -1\n")
	assert.ErrorIs(err, ErrNegative)

	_, err = Parse("[assembler]\ncapacity = 10\nentry_pc = 10\n")
	assert.ErrorIs(err, ErrEntryCapacity)

	_, err = Parse("[machine\n")
	assert.Error(err)

	_, err = Parse("[machine]\nstack_size = \"big\"\n")
	assert.Error(err)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, FILENAME)
	assert.NoError(os.WriteFile(path, []byte("[machine]\nmemory_size = 64\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Equal(64, cfg.Machine.MemorySize)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(err, os.ErrNotExist)
}
