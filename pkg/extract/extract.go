// Package extract turns images into token groups using a vision model.
//
// The [Gemini] extractor uploads every image through the Files API with a
// bounded worker pool, asks the model for a JSON array of
// {figure_name, token[]} objects in a single generateContent call, and
// deletes the uploads afterwards. [Cached] wraps any [Extractor] with a
// result cache keyed by model, instruction and image content.
package extract

import (
	"bytes"
	"context"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/imageset"
	pkgio "github.com/matzehuels/tokendeck/pkg/io"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// Prompt is the user message sent alongside the images.
const Prompt = "添付した画像について処理を行ってください。"

var (
	// ErrNoImages is returned when Extract is called without images.
	ErrNoImages = errors.New(errors.ErrCodeInvalidInput, "no images selected")

	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New(errors.ErrCodeEmptyResponse, "model returned an empty response")
)

// Extractor produces token groups from images.
type Extractor interface {
	Extract(ctx context.Context, images []imageset.Image) ([]layout.TokenGroup, error)
}

// ProgressFunc is called after each finished upload with the number of
// uploads done so far and the total.
type ProgressFunc func(done, total int)

// ParseStats reports entries dropped while parsing a response.
type ParseStats = pkgio.ReadStats

// ParseGroups decodes a model response. Entries without a figure_name are
// skipped and counted; an entry without tokens yields an empty group.
func ParseGroups(data []byte) ([]layout.TokenGroup, ParseStats, error) {
	data = stripFence(bytes.TrimSpace(data))
	if len(data) == 0 {
		return nil, ParseStats{}, ErrEmptyResponse
	}
	return pkgio.DecodeGroups(data)
}

// stripFence removes a surrounding ```json ... ``` block if present.
func stripFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	} else {
		return nil
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}
