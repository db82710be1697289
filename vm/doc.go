// Package vm implements the Kestrel runtime.
//
// This package contains:
//   - Lexical environments shared by reference between closures
//   - The object model: classes with multiple inheritance, instances,
//     closures and bound methods
//   - Native classes for the builtin value types, dispatched through the
//     same protocol as user classes
//   - The tree-walking interpreter
//
// Kestrel has no builtin operators: a + b sends add to a, integers included.
package vm
