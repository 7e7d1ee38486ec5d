// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultChunkSize is the read size used for one raw chunk.
const DefaultChunkSize = 32 * 1024

// DefaultMarkers are the in-band error markers recognized in decoded text.
// Matching is case-insensitive, so "Error:" and "ERROR:" both hit.
var DefaultMarkers = []string{"error:"}

// =============================================================================
// DECODER
// =============================================================================

// Decoder converts a raw response body into ordered text fragments.
// One Read of the underlying reader is one chunk; each chunk yields at most
// one fragment. A Decoder is not restartable.
type Decoder struct {
	r       io.Reader
	utf8    transform.Transformer
	markers []string

	raw     []byte
	pending []byte // undecoded tail of a split multi-byte sequence
	err     error  // sticky terminal error
}

// NewDecoder creates a decoder over r. With no markers, DefaultMarkers apply.
func NewDecoder(r io.Reader, markers ...string) *Decoder {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			lowered = append(lowered, m)
		}
	}
	return &Decoder{
		r:       r,
		utf8:    unicode.UTF8.NewDecoder(),
		markers: lowered,
		raw:     make([]byte, DefaultChunkSize),
	}
}

// Next returns the next decoded fragment. It returns io.EOF once the
// underlying reader is exhausted and every buffered byte has been emitted.
// A fragment carrying an error marker yields a *ContentError.
func (d *Decoder) Next() (string, error) {
	for d.err == nil {
		n, rerr := d.r.Read(d.raw)
		atEOF := errors.Is(rerr, io.EOF)
		if rerr != nil && !atEOF {
			d.err = rerr
			return "", rerr
		}

		text, err := d.decode(d.raw[:n], atEOF)
		if err != nil {
			d.err = err
			return "", err
		}
		if atEOF {
			d.err = io.EOF
		}
		if text == "" {
			continue
		}
		if err := d.check(text); err != nil {
			d.err = err
			return "", err
		}
		return text, nil
	}
	return "", d.err
}

// decode runs chunk through the UTF-8 transformer, keeping an incomplete
// trailing sequence for the next call. At EOF the remainder is flushed and
// any incomplete sequence becomes U+FFFD.
func (d *Decoder) decode(chunk []byte, atEOF bool) (string, error) {
	src := append(d.pending, chunk...)
	if len(src) == 0 {
		return "", nil
	}

	dst := make([]byte, len(src)*3+utf8.UTFMax)
	nDst, nSrc, err := d.utf8.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		return "", fmt.Errorf("decode stream: %w", err)
	}
	d.pending = append(d.pending[:0], src[nSrc:]...)
	return string(dst[:nDst]), nil
}

func (d *Decoder) check(fragment string) error {
	lower := strings.ToLower(fragment)
	for _, m := range d.markers {
		if strings.Contains(lower, m) {
			return &ContentError{Marker: m, Fragment: fragment}
		}
	}
	return nil
}
