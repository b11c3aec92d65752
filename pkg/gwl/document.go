package gwl

import (
	"io"
	"slices"
	"strings"
)

// Document is an ordered sequence of instructions with append-only
// semantics: instructions are never reordered or mutated once added.
type Document struct {
	instructions []Instruction
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Append adds instructions at the end of the document.
func (d *Document) Append(instructions ...Instruction) {
	d.instructions = append(d.instructions, instructions...)
}

// Len returns the number of instructions.
func (d *Document) Len() int {
	return len(d.instructions)
}

// Instructions returns a copy of the instruction sequence in document
// order.
func (d *Document) Instructions() []Instruction {
	return slices.Clone(d.instructions)
}

// At returns the instruction at index i.
func (d *Document) At(i int) Instruction {
	return d.instructions[i]
}

// Render writes the document as text, one instruction per line with a
// trailing line break each.
func (d *Document) Render(w io.Writer) error {
	for _, in := range d.instructions {
		if _, err := io.WriteString(w, in.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// String returns the rendered document text.
func (d *Document) String() string {
	var b strings.Builder
	for _, in := range d.instructions {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}
