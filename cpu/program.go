package cpu

import (
	"encoding/binary"
	"iter"
	"math"
	"slices"
)

// Symbol names the first program count of a linked function.
type Symbol struct {
	Name string `cbor:"1,keyasint"`
	Pc   int    `cbor:"2,keyasint"`
}

// Program is an assembled word image and its link map.
type Program struct {
	Words   []float64
	Symbols []Symbol // Sorted by Pc.
}

// Debug returns the symbol of the function containing pc.
func (prog *Program) Debug(pc int) (sym Symbol) {
	sym.Pc = -1
	for _, s := range prog.Symbols {
		if s.Pc > pc {
			break
		}
		sym = s
	}

	return
}

// Lookup returns the program count of a named function.
func (prog *Program) Lookup(name string) (pc int, ok bool) {
	for _, s := range prog.Symbols {
		if s.Name == name {
			return s.Pc, true
		}
	}
	return
}

// Codes iterates over the decoded instructions with their program counts.
// Iteration stops at the first word that does not decode.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(pc int, code Code) bool) {
		pc := 0
		for word := 0; word < len(prog.Words); pc++ {
			code, next, err := decodeAt(prog.Words, word)
			if err != nil {
				return
			}
			if !yield(pc, code) {
				return
			}
			word = next
		}
	}
}

// decodeAt decodes the instruction starting at a word offset.
func decodeAt(words []float64, word int) (code Code, next int, err error) {
	op, err := DecodeOpCode(words[word])
	if err != nil {
		err = ErrWord{Offset: word, Word: words[word], Err: err}
		return
	}

	code.Op = op
	next = word + 1
	if op.HasImmediate() {
		if next >= len(words) {
			err = ErrWord{Offset: word, Word: words[word], Err: ErrTruncated}
			return
		}
		code.Immediate = words[next]
		next++
	}

	return
}

// Decode decodes every word of the program into instructions, indexed by
// program count.
func (prog *Program) Decode() (codes []Code, err error) {
	for word := 0; word < len(prog.Words); {
		var code Code
		code, word, err = decodeAt(prog.Words, word)
		if err != nil {
			codes = nil
			return
		}
		codes = append(codes, code)
	}

	return
}

// Trim drops trailing NOP instructions. A program that does not decode
// completely is left untouched.
func (prog *Program) Trim() {
	end := 0
	word := 0
	for _, code := range prog.Codes() {
		word += code.Width()
		if code.Op != NOP {
			end = word
		}
	}

	if word < len(prog.Words) {
		return
	}

	prog.Words = slices.Clip(prog.Words[:end])
}

// Binary returns the little-endian wire image.
func (prog *Program) Binary() (bin []byte) {
	bin = make([]byte, 0, len(prog.Words)*WORD_SIZE)
	for _, word := range prog.Words {
		bin = binary.LittleEndian.AppendUint64(bin, math.Float64bits(word))
	}

	return
}

// ParseBinary loads a wire image. Symbols are not part of the image.
func ParseBinary(bin []byte) (prog *Program, err error) {
	if len(bin)%WORD_SIZE != 0 {
		err = ErrBinarySize
		return
	}

	prog = &Program{
		Words: make([]float64, len(bin)/WORD_SIZE),
	}
	for n := range prog.Words {
		prog.Words[n] = math.Float64frombits(binary.LittleEndian.Uint64(bin[n*WORD_SIZE:]))
	}

	return
}
