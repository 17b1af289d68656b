package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// literalJSON rewrites one JSON value with every string in literal form: \uXXXX
// escapes of printable characters and escaped slashes are resolved, and <, > and &
// are left alone. Key order and number text are kept as received.
func literalJSON(raw json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var buf bytes.Buffer
	if err := copyValue(dec, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func copyValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		return copyContainer(dec, buf, t)
	case string:
		return writeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected JSON token %v", tok)
	}
	return nil
}

func copyContainer(dec *json.Decoder, buf *bytes.Buffer, open json.Delim) error {
	object := open == '{'
	buf.WriteByte(byte(open))
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if object {
			key, err := dec.Token()
			if err != nil {
				return err
			}
			name, ok := key.(string)
			if !ok {
				return fmt.Errorf("unexpected object key %v", key)
			}
			if err := writeString(buf, name); err != nil {
				return err
			}
			buf.WriteByte(':')
		}
		if err := copyValue(dec, buf); err != nil {
			return err
		}
	}
	closing, err := dec.Token()
	if err != nil {
		return err
	}
	buf.WriteByte(byte(closing.(json.Delim)))
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode's trailing newline
	return nil
}
