package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans every write out to all of its writers. A failing writer
// does not stop the others; all write errors are returned combined.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w != nil {
			cw.writers = append(cw.writers, w)
		}
	}
	return cw
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	written := len(p)
	for _, w := range cw.writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			if n < written {
				written = n
			}
		}
	}
	return written, err
}
