package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[float64]{Limit: 2}
	assert.True(s.Empty())
	assert.False(s.Full())

	assert.NoError(s.Push(1.5))
	assert.False(s.Empty())
	assert.Equal(1, s.Depth())
	assert.Equal(1.5, s.Data[0])

	assert.NoError(s.Push(2.5))
	assert.True(s.Full())
	assert.ErrorIs(s.Push(3.5), ErrStackFull)
	assert.Equal(2, s.Depth())
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[int]{}
	s.Push(10)
	s.Push(20)

	val, ok := s.Pop()
	assert.True(ok)
	assert.Equal(20, val)

	val, ok = s.Pop()
	assert.True(ok)
	assert.Equal(10, val)

	val, ok = s.Pop()
	assert.False(ok)
	assert.Equal(0, val)
}

func TestStack_Pick(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[float64]{}
	s.Push(1)
	s.Push(2)
	s.Push(3)

	val, ok := s.Pick(0)
	assert.True(ok)
	assert.Equal(3.0, val)

	val, ok = s.Pick(2)
	assert.True(ok)
	assert.Equal(1.0, val)

	_, ok = s.Pick(3)
	assert.False(ok)
	_, ok = s.Pick(-1)
	assert.False(ok)
}

func TestStack_Room(t *testing.T) {
	assert := assert.New(t)

	s := &Stack[float64]{Limit: 3}
	s.Push(1)
	assert.True(s.Room(2))
	assert.False(s.Room(3))

	s.Reset()
	assert.True(s.Empty())
	assert.True(s.Room(3))

	unbounded := &Stack[float64]{}
	assert.True(unbounded.Room(1 << 20))
}
