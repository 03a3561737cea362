package cpu

const (
	STACK_LIMIT      = 2048 // Default operand stack depth
	CALL_STACK_LIMIT = 1024 // Default call stack depth
)

// Stack is a bounded LIFO of values.
type Stack[T any] struct {
	Data  []T
	Limit int // Maximum depth; zero is unbounded.
}

// Push adds a value, failing with ErrStackFull at the limit.
func (s *Stack[T]) Push(value T) (err error) {
	if s.Full() {
		err = ErrStackFull
		return
	}
	s.Data = append(s.Data, value)
	return
}

// Pop removes the top value.
func (s *Stack[T]) Pop() (value T, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

// Pick returns the value n entries below the top, without removing it.
func (s *Stack[T]) Pick(n int) (value T, ok bool) {
	if n < 0 || n >= len(s.Data) {
		return
	}
	return s.Data[len(s.Data)-1-n], true
}

// Depth returns the number of values on the stack.
func (s *Stack[T]) Depth() int {
	return len(s.Data)
}

func (s *Stack[T]) Empty() bool {
	return len(s.Data) == 0
}

// Room returns true if n more values fit.
func (s *Stack[T]) Room(n int) bool {
	return s.Limit == 0 || len(s.Data)+n <= s.Limit
}

func (s *Stack[T]) Full() bool {
	return !s.Room(1)
}

func (s *Stack[T]) Peek() (value T, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack[T]) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
