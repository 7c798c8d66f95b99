// Package model provides the beat-quantized timeline model: sound events,
// tracks that tile the beat axis, compositions and repeat flags.
package model

import "fmt"

// PitchClass is one of the twelve chromatic pitch classes, 0 = C through 11 = B
type PitchClass int

const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

// PitchClasses is the number of chromatic pitch classes in an octave
const PitchClasses = 12

type pitchNames struct {
	name  string
	sharp string
	flat  string
}

var pitchTable = [PitchClasses]pitchNames{
	C:      {"C", "B#", "C"},
	CSharp: {"C#", "C#", "Db"},
	D:      {"D", "D", "D"},
	DSharp: {"D#", "D#", "Eb"},
	E:      {"E", "E", "Fb"},
	F:      {"F", "E#", "F"},
	FSharp: {"F#", "F#", "Gb"},
	G:      {"G", "G", "G"},
	GSharp: {"G#", "G#", "Ab"},
	A:      {"A", "A", "A"},
	ASharp: {"A#", "A#", "Bb"},
	B:      {"B", "B", "Cb"},
}

// PitchClassOf returns the pitch class at value. 12 folds back to C.
func PitchClassOf(value int) (PitchClass, error) {
	if value < 0 || value > PitchClasses {
		return 0, fmt.Errorf("%w: no pitch class at value %d", ErrInvalidArgument, value)
	}
	return PitchClass(value % PitchClasses), nil
}

// Valid reports whether p is one of the twelve pitch classes
func (p PitchClass) Valid() bool {
	return p >= C && p <= B
}

// Next returns the following pitch class, wrapping B to C
func (p PitchClass) Next() PitchClass {
	return (p + 1) % PitchClasses
}

// String returns the canonical name
func (p PitchClass) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PitchClass(%d)", int(p))
	}
	return pitchTable[p].name
}

// SharpName returns the name on a sharp scale
func (p PitchClass) SharpName() string {
	if !p.Valid() {
		return p.String()
	}
	return pitchTable[p].sharp
}

// FlatName returns the name on a flat scale
func (p PitchClass) FlatName() string {
	if !p.Valid() {
		return p.String()
	}
	return pitchTable[p].flat
}
