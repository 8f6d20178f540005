// Package exif reads capture metadata in-process from EXIF blocks.
//
// It is the fallback used when exiftool is not installed. Only JPEG/TIFF-style
// containers carrying an EXIF block are understood; anything else yields an
// empty tag set rather than an error.
package exif

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// Tag names are reported using exiftool's vocabulary so both backends are
// interchangeable for callers.
const (
	TagCreateDate       = "CreateDate"
	TagSerialNumber     = "SerialNumber"
	TagBodySerialNumber = "BodySerialNumber"
)

// bodySerialNumber is EXIF 2.3 tag 0xA431. goexif predates it and exposes it
// under its unknown-tag name.
var bodySerialNumber = []goexif.FieldName{"BodySerialNumber", "UnknownTag_a431"}

// Reader extracts tags without spawning external processes.
type Reader struct{}

// NewReader returns a native EXIF reader.
func NewReader() *Reader {
	return &Reader{}
}

// Extract opens path and decodes its EXIF block. Failing to open the file is
// an error; a file without decodable EXIF returns an empty map.
func (r *Reader) Extract(ctx context.Context, path string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f), nil
}

// Close satisfies the extractor lifecycle; there is nothing to release.
func (r *Reader) Close() error { return nil }

// Decode parses EXIF from rd and returns the tags it recognizes.
func Decode(rd io.Reader) map[string]string {
	tags := map[string]string{}
	x, err := goexif.Decode(rd)
	if err != nil || x == nil {
		return tags
	}

	// exiftool's CreateDate is EXIF DateTimeDigitized.
	if v := stringField(x, goexif.DateTimeDigitized); v != "" {
		tags[TagCreateDate] = v
	}
	if _, ok := tags[TagCreateDate]; !ok {
		if v := stringField(x, goexif.DateTime); v != "" {
			tags[TagCreateDate] = v
		}
	}
	for _, name := range bodySerialNumber {
		if v := stringField(x, name); v != "" {
			tags[TagBodySerialNumber] = v
			break
		}
	}
	return tags
}

func stringField(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag == nil {
		return ""
	}
	v, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}
