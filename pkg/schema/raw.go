package schema

import "errors"

// RawDocument wraps an undecoded schema payload and its origin.
type RawDocument struct {
	source Source
	raw    []byte
}

// NewRawDocument constructs a RawDocument wrapper while validating the inputs.
func NewRawDocument(src Source, raw []byte) (RawDocument, error) {
	if src == nil {
		return RawDocument{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return RawDocument{}, errors.New("schema: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return RawDocument{source: src, raw: clone}, nil
}

// MustNewRawDocument panics if the document cannot be created. Useful for tests.
func MustNewRawDocument(src Source, raw []byte) RawDocument {
	doc, err := NewRawDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the payload.
func (d RawDocument) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the payload.
func (d RawDocument) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d RawDocument) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Decode parses the payload into a form Document.
func (d RawDocument) Decode() (Document, error) {
	doc, err := DecodeDocument(d.raw)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Path == "" {
			return Document{}, &DecodeError{Path: d.Location(), Err: decodeErr.Err}
		}
		return Document{}, err
	}
	return doc, nil
}
