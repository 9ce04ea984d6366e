package token

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultExpiryBuffer = 300 * time.Second

// Payload is the claim set the backend puts into issued tokens.
// Subject holds the user id.
type Payload struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode reads the payload segment without verifying the signature.
// The header and signature segments are not inspected.
// Returns nil for any malformed token.
func Decode(token string) *Payload {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil
	}

	data, err := parser.DecodeSegment(segments[1])
	if err != nil {
		return nil
	}

	var payload Payload
	err = json.Unmarshal(data, &payload)
	if err != nil {
		return nil
	}

	return &payload
}

func IsExpired(token string, now time.Time) bool {
	return expiresBefore(token, now)
}

func IsExpiringSoon(token string, now time.Time, buffer time.Duration) bool {
	return expiresBefore(token, now.Add(buffer))
}

func expiresBefore(token string, moment time.Time) bool {
	payload := Decode(token)
	if payload == nil {
		return true
	}
	if payload.ExpiresAt == nil {
		return false
	}

	return payload.ExpiresAt.Unix() < moment.Unix()
}
