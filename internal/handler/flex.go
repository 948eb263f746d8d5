package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt decodes from a JSON number or a numeric string. The mobile client
// sends every ride field as a string.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	raw, err := unquoteScalar(b)
	if err != nil || raw == "" {
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%q is not an integer", raw)
	}
	*n = FlexInt(v)
	return nil
}

// FlexBool decodes from a JSON boolean or a string such as "true" or "0".
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	raw, err := unquoteScalar(b)
	if err != nil || raw == "" {
		return err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%q is not a boolean", raw)
	}
	*f = FlexBool(v)
	return nil
}

// unquoteScalar returns the text of a JSON scalar, stripping string quotes.
// null decodes to "".
func unquoteScalar(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(b), nil
}
