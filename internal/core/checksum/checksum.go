// Package checksum hashes file content and metadata into ETags.
package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
)

// Algorithm is a hashing algorithm name as used in config files
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

var (
	// ErrTooLarge is returned when the input exceeds Options.MaxSize
	ErrTooLarge = errors.New("file size exceeds maximum")

	// ErrUnsupportedAlgorithm is returned for unknown algorithm names
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)

// Options configures the checksum calculator
type Options struct {
	// MaxSize: inputs larger than this are rejected with ErrTooLarge (0 = unlimited)
	MaxSize int64

	// BufferSize: size of buffer for streaming reads
	BufferSize int
}

// DefaultOptions hashes up to 100MB in 32KB chunks
func DefaultOptions() Options {
	return Options{
		MaxSize:    100 * 1024 * 1024,
		BufferSize: 32 * 1024,
	}
}

// Calculator computes checksums
type Calculator interface {
	// Calculate streams reader through the hash and returns it hex encoded
	Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error)
}

// DefaultCalculator implements Calculator with streaming reads
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a new calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

func newHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case MD5:
		return md5.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algo)
	}
}

// Calculate implements the Calculator interface
func (c *DefaultCalculator) Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}

	// read one byte past the limit so oversized input is detected
	limited := reader
	if c.opts.MaxSize > 0 {
		limited = io.LimitReader(reader, c.opts.MaxSize+1)
	}

	buffer := make([]byte, c.opts.BufferSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := limited.Read(buffer)
		if n > 0 {
			total += int64(n)
			if c.opts.MaxSize > 0 && total > c.opts.MaxSize {
				return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, c.opts.MaxSize)
			}
			if _, hashErr := h.Write(buffer[:n]); hashErr != nil {
				return "", fmt.Errorf("hash write error: %w", hashErr)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	_, err := newHash(algo)
	return err == nil
}
