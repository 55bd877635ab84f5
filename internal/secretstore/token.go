package secretstore

import "github.com/hansjm10/jeeves-coordinator/internal/coreerr"

// TokenSpec is the single-field "token" secret variant: a bare credential
// string such as a personal access token for a git-hosting provider.
var TokenSpec = Spec{
	Name: "token",
	Fields: []FieldSpec{
		{Name: "token", Validate: validateNoControlChars},
	},
}

// TokenStore manages a single-token secret file.
type TokenStore struct {
	*Store
}

// NewTokenStore returns a TokenStore rooted at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{Store: New(path, TokenSpec)}
}

// WriteToken validates and persists token.
func (t *TokenStore) WriteToken(token string) error {
	_, err := t.Write(map[string]string{"token": token})
	return err
}

// ReadToken returns the stored token. exists is false whenever the record
// is absent or fails validation; err is non-nil only for an I/O failure
// distinct from "not found".
func (t *TokenStore) ReadToken() (token string, exists bool, err error) {
	record, exists, err := t.Read()
	if err != nil || !exists {
		return "", exists, err
	}
	value, ok := record["token"].(string)
	if !ok {
		return "", false, nil
	}
	return value, true, nil
}

func validateNoControlChars(value string) error {
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return coreerr.Validation("SECRET_CONTROL_CHAR", "value", "[REDACTED]", "secret field must not contain control characters")
		}
	}
	return nil
}
