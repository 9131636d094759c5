package config

import (
	"encoding/json"
	"fmt"
)

// RedactedString holds a secret that never shows up in logs or serialized output.
type RedactedString string

func (r RedactedString) redacted() string {
	return fmt.Sprintf("<redacted-%d-chars>", len(r))
}

func (r RedactedString) String() string {
	return r.redacted()
}

func (r RedactedString) GoString() string {
	return r.redacted()
}

func (r RedactedString) MarshalText() ([]byte, error) {
	return []byte(r.redacted()), nil
}

func (r RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.redacted())
}

func (r RedactedString) MarshalBinary() ([]byte, error) {
	return []byte(r.redacted()), nil
}
