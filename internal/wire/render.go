package wire

import (
	"io"

	"github.com/jhump/protoreflect/v2/protoprint"
)

// Render prints the executor service contract as a .proto file.
func Render(w io.Writer) error {
	pp := protoprint.Printer{}
	return pp.PrintProtoFile(File(), w)
}
