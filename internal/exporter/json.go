package exporter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks zstd-compressed result files.
const CompressedExt = ".zst"

// WriteJSON encodes v compactly to path through a temporary file renamed
// into place. Paths ending in .zst are zstd-compressed.
func WriteJSON(path string, v any) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	var w io.Writer = buf
	var enc *zstd.Encoder
	if strings.HasSuffix(path, CompressedExt) {
		enc, err = zstd.NewWriter(buf)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		w = enc
	}

	if err = json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if enc != nil {
		if err = enc.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes path into v, decompressing .zst files.
func ReadJSON(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
