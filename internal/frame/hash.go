package frame

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies the content of the frame.
// Frames with the same names and raw cells have the same fingerprint.
func (f *Frame) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.Itoa(f.rows))
	for _, c := range f.columns {
		_, _ = d.WriteString("\x1e")
		_, _ = d.WriteString(c.Name)
		for _, cell := range c.cells {
			_, _ = d.WriteString("\x1f")
			_, _ = d.WriteString(cell)
		}
	}
	return d.Sum64()
}
