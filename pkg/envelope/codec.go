package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Parse validates and decodes an encoded envelope. Optional fields that are absent or
// null decode to nil.
func Parse(data []byte) (*Envelope, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	env := new(Envelope)
	if err := decoder.Decode(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return env, nil
}

// Read parses a single envelope from r.
func Read(r io.Reader) (*Envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}
	return Parse(data)
}

func Marshal(env *Envelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: nil envelope", ErrInvalid)
	}
	return json.Marshal(env)
}
