package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tokendeck/pkg/layout"
)

// WriteGroups encodes token groups as an indented JSON array.
// A nil token list is written as [] so the output re-imports identically.
func WriteGroups(groups []layout.TokenGroup, w io.Writer) error {
	out := make([]layout.TokenGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		if out[i].Tokens == nil {
			out[i].Tokens = []string{}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportGroups writes token groups to a JSON file at path.
func ExportGroups(groups []layout.TokenGroup, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGroups(groups, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
