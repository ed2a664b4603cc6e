// Package sequence holds the fixed four-element pattern sequences an ASRT
// session is built around, and the per-block interference reversal.
package sequence

import (
	"strconv"
	"strings"
)

// Position is a stimulus location, 1 through 4 from left to right.
// The zero value means "no position" and is used for unset history.
type Position int

// NumPositions is the number of stimulus locations on screen.
const NumPositions = 4

// None marks an unset position.
const None Position = 0

// Valid returns true if p is one of the four stimulus locations.
func (p Position) Valid() bool {
	return p >= 1 && p <= NumPositions
}

// Pattern is an ordering of the four positions. A valid Pattern is always a
// permutation of 1..4.
type Pattern [NumPositions]Position

// Permutations are the sequences participants are counterbalanced across.
var Permutations = []Pattern{
	{1, 2, 3, 4},
	{1, 2, 4, 3},
	{1, 3, 2, 4},
	{1, 3, 4, 2},
	{1, 4, 3, 2},
	{1, 4, 2, 3},
}

// ForParticipant returns the pattern assigned to a participant number.
// Numbers below 1 wrap around the table the same way positive ones do.
func ForParticipant(participant int) Pattern {
	n := len(Permutations)
	idx := ((participant-1)%n + n) % n
	return Permutations[idx]
}

// Index returns the slot of pos within the pattern.
func (p Pattern) Index(pos Position) (int, bool) {
	for i, v := range p {
		if v == pos {
			return i, true
		}
	}
	return -1, false
}

// At returns the element at cursor, wrapping cyclically.
func (p Pattern) At(cursor int) Position {
	n := len(p)
	return p[((cursor%n)+n)%n]
}

// Reversed returns the pattern in reverse order.
func (p Pattern) Reversed() Pattern {
	var r Pattern
	for i := range p {
		r[i] = p[len(p)-1-i]
	}
	return r
}

// IsPermutation reports whether p holds each of the four positions once.
func (p Pattern) IsPermutation() bool {
	var seen [NumPositions + 1]bool
	for _, v := range p {
		if !v.Valid() || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Label renders the pattern as saved in the sequence_used column,
// e.g. "1,2,4,3".
func (p Pattern) Label() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ",")
}

// String renders the pattern compactly, e.g. "1243".
func (p Pattern) String() string {
	var sb strings.Builder
	for _, v := range p {
		sb.WriteString(strconv.Itoa(int(v)))
	}
	return sb.String()
}

// Parse reads a pattern written by String.
func Parse(s string) (Pattern, bool) {
	var p Pattern
	if len(s) != NumPositions {
		return p, false
	}
	for i, r := range s {
		p[i] = Position(r - '0')
	}
	return p, p.IsPermutation()
}

// Interference configures the epoch during which the pattern is reversed.
type Interference struct {
	Enabled        bool
	Epoch          int
	BlocksPerEpoch int
}

// DefaultBlocksPerEpoch is the number of blocks grouped into one epoch.
const DefaultBlocksPerEpoch = 5

// Epoch returns the 1-based epoch a 1-based block number falls in.
func Epoch(block, blocksPerEpoch int) int {
	if blocksPerEpoch <= 0 {
		blocksPerEpoch = DefaultBlocksPerEpoch
	}
	return (block-1)/blocksPerEpoch + 1
}

// ForBlock returns the pattern in effect for a main block. During the
// interference epoch it is the reverse of base; otherwise it is base.
func ForBlock(base Pattern, block int, in Interference) Pattern {
	if in.Enabled && Epoch(block, in.BlocksPerEpoch) == in.Epoch {
		return base.Reversed()
	}
	return base
}
