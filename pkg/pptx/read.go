package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// ReadText returns the text of each slide in deck order. Paragraphs within
// a slide are joined with newlines.
func ReadText(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "not a pptx package")
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	if _, ok := files["ppt/presentation.xml"]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "not a pptx package: missing ppt/presentation.xml")
	}

	var slides []string
	for i := 1; ; i++ {
		f, ok := files[fmt.Sprintf("ppt/slides/slide%d.xml", i)]
		if !ok {
			break
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		text, err := slideText(data)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i, err)
		}
		slides = append(slides, text)
	}
	return slides, nil
}

// ReadTextFile is ReadText for a file on disk.
func ReadTextFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadText(f, info.Size())
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return buf.Bytes(), nil
}

func slideText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		paras  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if el.Name.Space == nsA {
					paras = append(paras, cur.String())
					cur.Reset()
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(el)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}
