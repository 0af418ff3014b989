package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// DefaultSystemInstruction is used when no instruction file is available.
const DefaultSystemInstruction = "You are a helpful assistant that extracts text from images."

// starterInstruction seeds config/system_instruction.md in new projects.
const starterInstruction = `You extract text tokens from figures.

For every attached image, return one object with:
- figure_name: the panel or figure label shown in the image (for example "A" or "Fig. 2b")
- token: every distinct piece of text visible in that panel, in reading order

Return only the JSON array.
`

// LoadSystemInstruction reads the instruction file at path. A missing or
// empty file yields [DefaultSystemInstruction]; other read errors are returned.
func LoadSystemInstruction(path string) (string, error) {
	if path == "" {
		return DefaultSystemInstruction, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSystemInstruction, nil
		}
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return DefaultSystemInstruction, nil
	}
	return text, nil
}

// Encode renders the configuration as TOML. The API key is omitted.
func (c *Config) Encode() ([]byte, error) {
	out := *c
	out.Gemini.APIKey = ""
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InitProject creates dir/config/tokendeck.toml and
// dir/config/system_instruction.md. Existing files are left untouched.
// It returns the paths it wrote.
func InitProject(dir string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", cfgDir)
	}

	data, err := Default().Encode()
	if err != nil {
		return nil, err
	}
	files := []struct {
		path string
		data []byte
	}{
		{filepath.Join(cfgDir, FileName), data},
		{filepath.Join(cfgDir, "system_instruction.md"), []byte(starterInstruction)},
	}

	var written []string
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			continue
		}
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return written, err
		}
		written = append(written, f.path)
	}
	return written, nil
}
