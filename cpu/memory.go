package cpu

import (
	"maps"
	"slices"
)

const MEMORY_LIMIT = 4096 // Default number of addressable cells.

// Memory is the sparse data memory. Cells that were never stored read as 0.
type Memory struct {
	Limit int // Number of addressable cells; zero is unbounded.

	cells map[int64]float64
}

// address converts an address value into a cell index.
// Fractional addresses truncate toward zero.
func (mem *Memory) address(value float64) (addr int64, err error) {
	if !CanTruncate(value) {
		err = ErrMemoryAddress
		return
	}

	addr = AsInteger(value)
	if addr < 0 || (mem.Limit > 0 && addr >= int64(mem.Limit)) {
		err = ErrMemoryAddress
		return
	}

	return
}

// Load reads the cell at address.
func (mem *Memory) Load(address float64) (value float64, err error) {
	addr, err := mem.address(address)
	if err != nil {
		return
	}

	value = mem.cells[addr]
	return
}

// Store writes value to the cell at address.
func (mem *Memory) Store(address float64, value float64) (err error) {
	addr, err := mem.address(address)
	if err != nil {
		return
	}

	if mem.cells == nil {
		mem.cells = make(map[int64]float64)
	}
	mem.cells[addr] = value
	return
}

// Addresses returns the written cell addresses in ascending order.
func (mem *Memory) Addresses() []int64 {
	return slices.Sorted(maps.Keys(mem.cells))
}

// Reset forgets every stored cell.
func (mem *Memory) Reset() {
	clear(mem.cells)
}
