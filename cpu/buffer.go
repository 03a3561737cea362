package cpu

import (
	"slices"
)

const WORD_SIZE = 8 // Bytes per wire word.

// Buffer is a fixed capacity program image, pre-filled with NOP.
//
// Instructions are written at the cursor. Because instructions are one or two
// words wide, program counts and word offsets are only related by replaying
// the decode rule from word zero.
type Buffer struct {
	words  []float64
	cursor int
}

// NewBuffer creates a buffer of capacity words, all NOP.
func NewBuffer(capacity int) (buf *Buffer) {
	buf = &Buffer{
		words: make([]float64, capacity),
	}

	for n := range buf.words {
		buf.words[n] = NOP.Encode()
	}

	return
}

// Capacity returns the size of the buffer in words.
func (buf *Buffer) Capacity() int {
	return len(buf.words)
}

// Cursor returns the word offset of the next write.
func (buf *Buffer) Cursor() int {
	return buf.cursor
}

// Seek moves the cursor to a word offset.
func (buf *Buffer) Seek(word int) (err error) {
	if word < 0 || word > len(buf.words) {
		err = ErrSeekRange
		return
	}
	buf.cursor = word
	return
}

// Emit writes an instruction at the cursor and advances past it.
func (buf *Buffer) Emit(code Code) (err error) {
	words := code.Words()
	if buf.cursor+len(words) > len(buf.words) {
		err = ErrBufferFull
		return
	}

	copy(buf.words[buf.cursor:], words)
	buf.cursor += len(words)

	return
}

// Patch overwrites a single word without moving the cursor.
func (buf *Buffer) Patch(word int, value float64) (err error) {
	if word < 0 || word >= len(buf.words) {
		err = ErrSeekRange
		return
	}
	buf.words[word] = value
	return
}

// Word returns the word at an offset.
func (buf *Buffer) Word(word int) (value float64, err error) {
	if word < 0 || word >= len(buf.words) {
		err = ErrSeekRange
		return
	}
	value = buf.words[word]
	return
}

// Words returns a copy of the whole buffer.
func (buf *Buffer) Words() []float64 {
	return slices.Clone(buf.words)
}

// step decodes the opcode at a word offset and returns the offset of the
// next instruction.
func (buf *Buffer) step(word int) (next int, err error) {
	op, err := DecodeOpCode(buf.words[word])
	if err != nil {
		err = ErrWord{Offset: word, Word: buf.words[word], Err: err}
		return
	}

	next = word + op.Width()
	return
}

// ProgramCount returns the number of instructions that start before the
// word offset.
func (buf *Buffer) ProgramCount(word int) (pc int, err error) {
	if word < 0 || word > len(buf.words) {
		err = ErrSeekRange
		return
	}

	for at := 0; at < word; pc++ {
		at, err = buf.step(at)
		if err != nil {
			return
		}
	}

	return
}

// ProgramCountAtCursor returns the number of instructions emitted before
// the cursor.
func (buf *Buffer) ProgramCountAtCursor() (pc int, err error) {
	return buf.ProgramCount(buf.cursor)
}

// WordOffsetForProgramCount returns the word offset of instruction pc.
func (buf *Buffer) WordOffsetForProgramCount(pc int) (word int, err error) {
	if pc < 0 {
		err = ErrSeekRange
		return
	}

	for range pc {
		if word >= len(buf.words) {
			err = ErrSeekRange
			return
		}
		word, err = buf.step(word)
		if err != nil {
			return
		}
	}

	if word > len(buf.words) {
		err = ErrSeekRange
	}

	return
}

// ByteOffsetForProgramCount returns the byte offset of instruction pc in the
// binary image.
func (buf *Buffer) ByteOffsetForProgramCount(pc int) (offset int, err error) {
	word, err := buf.WordOffsetForProgramCount(pc)
	if err != nil {
		return
	}

	offset = word * WORD_SIZE
	return
}
