package model

// Builder assembles a Composition from a stream of tempo and note calls,
// the way a file reader would. The first error sticks and is returned by
// Build; later calls are ignored.
type Builder struct {
	c   *Composition
	err error
}

// NewBuilder returns a builder for a composition at full volume
func NewBuilder() *Builder {
	c, err := NewComposition(100)
	return &Builder{c: c, err: err}
}

// NewBuilderFor returns a builder that adds to an existing composition
func NewBuilderFor(c *Composition) *Builder {
	return &Builder{c: c}
}

// SetTempo sets the tempo in microseconds per beat
func (b *Builder) SetTempo(micros int) *Builder {
	if b.err == nil {
		b.err = b.c.SetTempo(micros)
	}
	return b
}

// AddNote places a note spanning [start, end) through Composition.PlaceNote
func (b *Builder) AddNote(start, end, instrument, pitch, volume int) *Builder {
	if b.err == nil {
		b.err = b.c.PlaceNote(start, end, instrument, pitch, volume)
	}
	return b
}

// AddFlag registers a repeat flag
func (b *Builder) AddFlag(f *RepeatFlag) *Builder {
	if b.err == nil {
		b.err = b.c.AddFlag(f)
	}
	return b
}

// Build returns the composition or the first error seen
func (b *Builder) Build() (*Composition, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.c, nil
}
