// Package export renders a document tree to host-consumable formats.
// RenderHTML is deterministic: the same tree always yields the same
// bytes, so exports are diffable and cacheable.
package export
