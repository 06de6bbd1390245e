// Package richtext is the bidirectional bridge between the document
// AST and the rich-text editor's native tree representation.
//
// FromAST and ToAST are pure conversions. Node identity crosses the
// boundary as an embedded view attribute, and ToAST can additionally
// take the previous root as a hint so ids survive editors that
// regenerate their whole tree on every change. Conversion failures are
// tagged with ErrConversion and never yield a half-converted tree.
package richtext
