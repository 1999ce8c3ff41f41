package genericclioptions

import (
	"io"
)

// IOStreams carries the standard streams so commands stay testable.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}
