package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameLength bounds user-supplied file names.
const maxNameLength = 255

// ValidateFilename validates a user-supplied output file name.
// It must be a plain base name: no directory components, no traversal,
// no control characters and no hidden files.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 255 characters
//   - No null bytes or control characters
//   - No path separators (/ or \) and no ".." sequences
//   - No leading dot
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPath, "file name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid control characters")
		}
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "file name cannot contain path traversal sequences (..)")
	}

	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidPath, "file name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "file name cannot be a hidden file")
	}

	return nil
}

// SanitizeFilename reduces name to its base file name and validates it.
// Traversal attempts are rejected rather than silently stripped, so
// "../../etc/passwd" fails while "decks/summary.pptx" yields "summary.pptx".
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", New(ErrCodeInvalidPath, "file name cannot contain path traversal sequences (..)")
		}
	}
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if err := ValidateFilename(base); err != nil {
		return "", err
	}
	return base, nil
}

// imageExtensions lists the image types the vision API accepts from us.
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ImageMIMEType returns the MIME type for an image path based on its
// extension. Unsupported extensions are an INVALID_IMAGE error.
func ImageMIMEType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := imageExtensions[ext]; ok {
		return mt, nil
	}
	return "", New(ErrCodeInvalidImage, "unsupported image type %q (must be .jpg, .jpeg or .png)", filepath.Base(path))
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
