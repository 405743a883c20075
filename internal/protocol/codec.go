package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hay-kot/criterio"
)

var (
	ErrMissingType = errors.New("missing request type")
	ErrUnknownType = errors.New("unknown request type")

	errFieldMissing = errors.New("is missing")
)

// Decode parses one request line. Unknown fields are ignored. Unknown
// types, malformed JSON and invalid enum values are errors, and so is any
// absent key other than the optional member references.
func Decode(line []byte) (Request, error) {
	line = bytes.TrimSpace(line)

	var envelope struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, err
	}
	if envelope.Type == "" {
		return nil, ErrMissingType
	}

	req := newRequest(envelope.Type)
	if req == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}
	if err := json.Unmarshal(line, req); err != nil {
		return nil, fmt.Errorf("%s: %w", envelope.Type, err)
	}
	if err := checkPresent(line, req); err != nil {
		return nil, fmt.Errorf("%s: %w", envelope.Type, err)
	}
	if v, ok := req.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", envelope.Type, err)
		}
	}
	return req, nil
}

// checkPresent rejects requests that leave out a key for a non-pointer
// field. Unmarshal would otherwise zero-fill it, turning a forgotten
// member_id into a request about member 0.
func checkPresent(line []byte, req Request) error {
	keys := requiredKeys(reflect.TypeOf(req).Elem())
	if len(keys) == 0 {
		return nil
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(line, &present); err != nil {
		return err
	}

	var errs criterio.FieldErrorsBuilder
	for _, key := range keys {
		if _, ok := present[key]; !ok {
			errs = errs.Append(key, errFieldMissing)
		}
	}
	return errs.ToError()
}

// requiredKeys lists the JSON keys of a struct's non-pointer fields in
// declaration order.
func requiredKeys(t reflect.Type) []string {
	keys := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() == reflect.Pointer {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys = append(keys, name)
	}
	return keys
}

// Encode renders a request as a single JSON object with its "type" tag
// first. The result carries no trailing newline.
func Encode(req Request) ([]byte, error) {
	tag, err := json.Marshal(req.Kind())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Kind(), err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if fields := bytes.TrimSpace(body[1 : len(body)-1]); len(fields) > 0 {
		buf.WriteByte(',')
		buf.Write(fields)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeResponse parses one response line.
func DecodeResponse(line []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(bytes.TrimSpace(line), &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	resp.Normalize()
	return resp, nil
}

// EncodeResponse renders a response without a trailing newline.
func EncodeResponse(resp Response) ([]byte, error) {
	resp.Normalize()
	return json.Marshal(resp)
}
