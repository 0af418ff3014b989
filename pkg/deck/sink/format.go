package sink

import (
	"strings"

	"github.com/matzehuels/tokendeck/pkg/deck"
	"github.com/matzehuels/tokendeck/pkg/errors"
)

// Format names an output encoding.
type Format string

const (
	FormatPPTX Format = "pptx"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// Formats lists the supported output formats, default first.
var Formats = []Format{FormatPPTX, FormatJSON, FormatText}

// ParseFormat validates a format name. An empty name is [FormatPPTX].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPPTX, nil
	case FormatPPTX, FormatJSON, FormatText:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want pptx, json or txt)", s)
	}
}

// ParseFormats parses a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return []Format{FormatPPTX}, nil
	}
	seen := make(map[Format]bool, len(names))
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Extension returns the file extension for the format, with leading dot.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
}

// Render encodes the deck in the given format.
func Render(f Format, d *deck.Deck, opts ...PPTXOption) ([]byte, error) {
	switch f {
	case FormatPPTX, "":
		return RenderPPTX(d, opts...)
	case FormatJSON:
		return RenderJSON(d)
	case FormatText:
		return RenderText(d), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
	}
}
