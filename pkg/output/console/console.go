package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/itohio/spacer/pkg/output"
	"github.com/itohio/spacer/pkg/sample"
)

type ConsoleOutput struct {
	w     io.Writer
	names []string
}

// NewConsole writes one line per sample to w, or stdout when w is nil.
// Channels without a name are printed as ch<index>.
func NewConsole(w io.Writer, names []string) output.Output {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w, names: names}
}

func (c *ConsoleOutput) Publish(s sample.Sample) error {
	var b strings.Builder
	b.WriteString(s.Timestamp.Format(time.RFC3339))
	for i, l := range s.Levels {
		fmt.Fprintf(&b, " %s=%.6f", c.name(i), l)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

func (c *ConsoleOutput) name(i int) string {
	if i < len(c.names) && c.names[i] != "" {
		return c.names[i]
	}
	return fmt.Sprintf("ch%d", i)
}
