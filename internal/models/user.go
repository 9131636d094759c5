package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UserID accepts both the numeric ids returned on login and the string ids returned by verify.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = UserID(n.String())
	return nil
}

func (u UserID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(u), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(u))
}

type User struct {
	ID       UserID `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Role     string `json:"role" yaml:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}
