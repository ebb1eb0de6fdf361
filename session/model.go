package session

import (
	"encoding/json"
	"fmt"
)

// Identity is the authenticated principal as reported by the backend's auth
// payload. The IsSuperadmin flag is carried verbatim and never interpreted
// by this library.
type Identity struct {
	UserID       int64  `json:"userId"`
	Email        string `json:"email"`
	IsSuperadmin bool   `json:"isSuperadmin"`
}

// Session is the unit the [Store] swaps wholesale: the raw bearer credential
// and the identity it belongs to. The two never change independently.
type Session struct {
	Token    string
	Identity Identity
}

// EncodeIdentity serializes an identity for the backend's identity slot.
func EncodeIdentity(id Identity) ([]byte, error) {
	data, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
	}
	return data, nil
}

// DecodeIdentity parses the identity slot. It never panics; anything that is
// not a JSON identity object is reported as [ErrIdentityCorrupt].
func DecodeIdentity(data []byte) (Identity, error) {
	if len(data) == 0 {
		return Identity{}, fmt.Errorf("%w: empty identity slot", ErrIdentityCorrupt)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrIdentityCorrupt, err)
	}
	return id, nil
}
