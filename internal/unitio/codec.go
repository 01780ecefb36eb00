package unitio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"weave/internal/link"
	"weave/internal/source"
)

// Format is a unit file encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

func (f Format) String() string {
	if f == FormatMsgpack {
		return "msgpack"
	}
	return "json"
}

// ParseFormat accepts "json" and "msgpack" ("mp").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return FormatJSON, fmt.Errorf("unknown unit format %q (expected json|msgpack)", s)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	}
	return FormatJSON, fmt.Errorf("%s: cannot tell the unit format from the extension", path)
}

// Decode reads one unit. JSON input must not carry unknown fields.
func Decode(r io.Reader, f Format) (*Unit, error) {
	u := new(Unit)
	switch f {
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(u); err != nil {
			return nil, fmt.Errorf("decode msgpack unit: %w", err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(u); err != nil {
			return nil, fmt.Errorf("decode json unit: %w", err)
		}
	}
	return u, nil
}

// Encode writes u. JSON output is indented for reading.
func Encode(w io.Writer, f Format, u *Unit) error {
	switch f {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.UseCompactInts(true)
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("encode msgpack unit: %w", err)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(u); err != nil {
			return fmt.Errorf("encode json unit: %w", err)
		}
	}
	return nil
}

// ReadFile decodes the unit at path in the format its extension names.
func ReadFile(path string) (*Unit, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	u, err := Decode(bufio.NewReader(file), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// WriteFile replaces path atomically.
func WriteFile(path string, u *Unit) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".unit-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := Encode(w, f, u); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads path and converts it for the linker.
func Load(path string) (*link.Input, *source.FileSet, error) {
	u, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	in, fs, err := u.Input()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, fs, nil
}
