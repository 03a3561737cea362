// Package cpu implements the floating-point stack machine and its assembler.
//
// Every instruction word and operand is an IEEE-754 double. An instruction
// occupies one word, or two when its opcode carries an immediate (PUSH_CONST,
// CALL and the branches). Addresses used by CALL and the branches are program
// counts (instruction indexes), not word offsets, so translating between the
// two requires replaying the decode rule from word zero.
//
// The machine has no comparison instructions. Arithmetic raises sticky
// exception flags (divide-by-zero, inexact, invalid, overflow, underflow)
// which persist until CLEAR_EXCEPT, and the branch instructions test them.
//
// The assembler writes into a fixed capacity buffer pre-filled with NOP,
// resolves labels and forward calls, and links an entry sequence into a
// program count reserved ahead of the function bodies.
package cpu
