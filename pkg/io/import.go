package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// ReadStats reports what lenient decoding discarded.
type ReadStats struct {
	Entries       int // objects seen
	Skipped       int // objects without a usable figure_name
	DroppedTokens int // null tokens removed
}

type rawGroup struct {
	Name   *string           `json:"figure_name"`
	Tokens []json.RawMessage `json:"token"`
}

type wrapped struct {
	Groups []rawGroup `json:"groups"`
}

// ReadGroups decodes token groups from r.
func ReadGroups(r io.Reader) ([]layout.TokenGroup, ReadStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("read: %w", err)
	}
	return DecodeGroups(data)
}

// DecodeGroups decodes token groups from a JSON document.
func DecodeGroups(data []byte) ([]layout.TokenGroup, ReadStats, error) {
	var stats ReadStats

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, stats, errors.New(errors.ErrCodeInvalidFormat, "empty groups document")
	}

	var raws []rawGroup
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, stats, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode groups")
		}
	case '{':
		var w wrapped
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, stats, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode groups")
		}
		raws = w.Groups
	default:
		return nil, stats, errors.New(errors.ErrCodeInvalidFormat, "groups must be a JSON array or object")
	}

	groups := make([]layout.TokenGroup, 0, len(raws))
	for _, rg := range raws {
		stats.Entries++
		if rg.Name == nil || strings.TrimSpace(*rg.Name) == "" {
			stats.Skipped++
			continue
		}
		g := layout.TokenGroup{Name: *rg.Name, Tokens: make([]string, 0, len(rg.Tokens))}
		for _, raw := range rg.Tokens {
			tok, ok := tokenText(raw)
			if !ok {
				stats.DroppedTokens++
				continue
			}
			g.Tokens = append(g.Tokens, tok)
		}
		groups = append(groups, g)
	}
	return groups, stats, nil
}

func tokenText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// ImportGroups reads token groups from a JSON file at path.
func ImportGroups(path string) ([]layout.TokenGroup, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ReadStats{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "groups file %s", path)
		}
		return nil, ReadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGroups(f)
}
