/*
Package compiler runs the whole pipeline.

Process of compilation

Program Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	analyze (scopes, declarations) ->
	lower ->
Three-Address Code (tac) ->
	back (register allocation) ->
x86 Assembly Text (NASM)

Assembly Text ->
	asm.Parse ->
Assembly Unit (asm) ->
	x86.Exec ->
Final Memory State

Each translation unit gets fresh symbol table, tac counters,
register allocator and data section.
*/
package compiler
