// Package json wraps json-iterator behind the encoding/json call shapes so
// the rest of glint never imports a JSON library directly.
package json

import (
	"bytes"
	"encoding/json" //nolint:depguard // this package wraps it
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Encoder represents an encoder for json
type Encoder interface {
	Encode(v any) error
}

// Decoder represents a decoder for json
type Decoder interface {
	Decode(v any) error
}

var handler = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal converts object as bytes
func Marshal(v any) ([]byte, error) {
	return handler.Marshal(v)
}

// MarshalIndent marshals compactly through jsoniter and indents the bytes
// with encoding/json; jsoniter's own indenter mis-nests objects in arrays.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes object from bytes
func Unmarshal(data []byte, v any) error {
	return handler.Unmarshal(data, v)
}

// NewEncoder creates an encoder to write objects to writer
func NewEncoder(writer io.Writer) Encoder {
	return handler.NewEncoder(writer)
}

// NewDecoder creates a decoder to read objects from reader
func NewDecoder(reader io.Reader) Decoder {
	return handler.NewDecoder(reader)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return handler.Valid(data)
}

// Indent appends to dst an indented form of the JSON-encoded src. Object
// keys come out sorted.
func Indent(dst *bytes.Buffer, src []byte, prefix, indent string) error {
	var v any
	if err := handler.Unmarshal(src, &v); err != nil {
		return err
	}
	b, err := MarshalIndent(v, prefix, indent)
	if err != nil {
		return err
	}
	dst.Write(b)
	return nil
}
