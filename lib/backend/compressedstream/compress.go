// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compressedstream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/strata/lib/fserr"
)

// Method identifies a compressed stream format. All methods use their
// streaming (framed) formats, so a stream decodes without knowing its
// uncompressed size up front.
type Method string

const (
	// MethodZstd is a zstd frame sequence.
	MethodZstd Method = "zstd"
	// MethodGzip is an RFC 1952 gzip member sequence.
	MethodGzip Method = "gzip"
	// MethodLZ4 is the LZ4 frame format.
	MethodLZ4 Method = "lz4"
	// MethodS2 is the S2 stream format, which also reads Snappy
	// framed streams.
	MethodS2 Method = "s2"
)

// Methods lists every supported method.
var Methods = []Method{MethodZstd, MethodGzip, MethodLZ4, MethodS2}

// ParseMethod validates a compression_method attribute.
func ParseMethod(name string) (Method, error) {
	switch method := Method(name); method {
	case MethodZstd, MethodGzip, MethodLZ4, MethodS2:
		return method, nil
	default:
		return "", fserr.Argumentf("unknown compression method %q", name)
	}
}

// newDecoder returns a reader producing the decompressed stream.
// Closing it releases decoder state; it does not close source.
func newDecoder(method Method, source io.Reader) (io.ReadCloser, error) {
	switch method {
	case MethodZstd:
		decoder, err := zstd.NewReader(source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return decoder.IOReadCloser(), nil
	case MethodGzip:
		decoder, err := gzip.NewReader(source)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return decoder, nil
	case MethodLZ4:
		return io.NopCloser(lz4.NewReader(source)), nil
	case MethodS2:
		return io.NopCloser(s2.NewReader(source)), nil
	default:
		return nil, fmt.Errorf("unsupported compression method %q", method)
	}
}

// Compress encodes data with method. It produces the streams this
// backend reads and is used to build COMPRESSED_STREAM layers.
func Compress(method Method, data []byte) ([]byte, error) {
	var output bytes.Buffer
	var encoder io.WriteCloser
	switch method {
	case MethodZstd:
		writer, err := zstd.NewWriter(&output, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		encoder = writer
	case MethodGzip:
		encoder = gzip.NewWriter(&output)
	case MethodLZ4:
		encoder = lz4.NewWriter(&output)
	case MethodS2:
		encoder = s2.NewWriter(&output)
	default:
		return nil, fserr.Argumentf("unknown compression method %q", method)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("%s compress: %w", method, err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("%s compress: %w", method, err)
	}
	return output.Bytes(), nil
}
