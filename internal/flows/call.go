package flows

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MrEthical07/goBearer/session"
)

// AuthReply is the transport-level answer from an auth endpoint call.
type AuthReply struct {
	Status int
	Body   []byte
}

// AuthCaller performs one HTTP round trip against an auth endpoint. bearer
// is empty for unauthenticated calls; a nil body means an empty request
// body. Implementations must return an error only for transport failures,
// never for non-2xx statuses.
type AuthCaller interface {
	CallAuth(ctx context.Context, path, bearer string, body any) (AuthReply, error)
}

var errEmptyGrantToken = errors.New("grant carries no token")

// grantPayload mirrors the JSON grant returned by login and refresh.
type grantPayload struct {
	Token        string `json:"token"`
	UserID       int64  `json:"userId"`
	Email        string `json:"email"`
	IsSuperadmin bool   `json:"isSuperadmin"`
}

func decodeGrant(body []byte) (session.Session, error) {
	var p grantPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return session.Session{}, err
	}
	if p.Token == "" {
		return session.Session{}, errEmptyGrantToken
	}
	return session.Session{
		Token: p.Token,
		Identity: session.Identity{
			UserID:       p.UserID,
			Email:        p.Email,
			IsSuperadmin: p.IsSuperadmin,
		},
	}, nil
}
