package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Nop(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(8)
	assert.Equal(8, buf.Capacity())
	for _, word := range buf.Words() {
		assert.Equal(NOP.Encode(), word)
	}

	pc, err := buf.ProgramCount(8)
	assert.NoError(err)
	assert.Equal(8, pc)
}

func TestBuffer_Translate(t *testing.T) {
	assert := assert.New(t)

	codes := []Code{
		{Op: PUSH_CONST, Immediate: 3},
		{Op: DUP},
		{Op: B_INEXACT, Immediate: 2},
		{Op: CALL, Immediate: 0},
		{Op: PRINT_FLOAT},
		{Op: PUSH_CONST, Immediate: 7},
		{Op: RET},
	}

	buf := NewBuffer(32)
	for n, code := range codes {
		assert.NoError(buf.Emit(code))

		pc, err := buf.ProgramCountAtCursor()
		assert.NoError(err)
		assert.Equal(n+1, pc)

		offset, err := buf.ByteOffsetForProgramCount(pc)
		assert.NoError(err)
		assert.Equal(buf.Cursor()*WORD_SIZE, offset)
	}

	table := map[int]int{
		0: 0,
		1: 2,
		2: 3,
		3: 5,
		4: 7,
		5: 8,
		6: 10,
		7: 11,
	}
	for pc, word := range table {
		offset, err := buf.WordOffsetForProgramCount(pc)
		assert.NoError(err)
		assert.Equal(word, offset, "pc %d", pc)
	}
}

func TestBuffer_Range(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(4)

	word, err := buf.WordOffsetForProgramCount(4)
	assert.NoError(err)
	assert.Equal(4, word)

	_, err = buf.WordOffsetForProgramCount(5)
	assert.ErrorIs(err, ErrSeekRange)

	_, err = buf.WordOffsetForProgramCount(-1)
	assert.ErrorIs(err, ErrSeekRange)

	assert.ErrorIs(buf.Seek(5), ErrSeekRange)
	assert.NoError(buf.Seek(4))
	assert.ErrorIs(buf.Emit(Code{Op: NOP}), ErrBufferFull)
}

func TestBuffer_Full(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(3)
	assert.NoError(buf.Emit(Code{Op: PUSH_CONST, Immediate: 1}))
	assert.ErrorIs(buf.Emit(Code{Op: PUSH_CONST, Immediate: 2}), ErrBufferFull)
	assert.Equal(2, buf.Cursor())
	assert.NoError(buf.Emit(Code{Op: RET}))
	assert.Equal(3, buf.Cursor())
}

func TestBuffer_Undecodable(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(4)
	assert.NoError(buf.Patch(1, 1.5))

	_, err := buf.ProgramCount(3)
	assert.ErrorIs(err, ErrOpcodeDecode)

	var werr ErrWord
	assert.ErrorAs(err, &werr)
	assert.Equal(1, werr.Offset)

	value, err := buf.Word(1)
	assert.NoError(err)
	assert.Equal(1.5, value)
}
