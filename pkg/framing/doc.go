// ABOUTME: Length-prefixed packet framing package
// ABOUTME: Splits a byte stream back into discrete compressed packets
// Package framing turns discrete compressed audio packets into a single byte
// stream and back.
//
// Each unit on the stream is a 2-byte little-endian length followed by that
// many payload bytes:
//
//	[len lo][len hi][payload ...][len lo][len hi][payload ...]
//
// A Queue only ever holds whole units appended by Push and only ever removes
// whole units in TryExtract, so a reader never observes a partial packet.
// Queue does no locking of its own; the owner guards it.
package framing
