package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/tokendeck/pkg/deck"
)

// RenderText writes a plain text outline of the deck: one block per slide
// with the heading followed by its tokens, blocks separated by a blank line.
func RenderText(d *deck.Deck) []byte {
	var buf bytes.Buffer
	for i, s := range d.Slides {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "# %s\n", s.Heading.Text)
		for _, t := range s.Tokens {
			fmt.Fprintf(&buf, "- %s\n", t.Text)
		}
	}
	return buf.Bytes()
}
