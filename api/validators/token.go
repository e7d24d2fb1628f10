package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// BearerToken extracts the token from an Authorization header value. The
// scheme prefix is optional.
func BearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	switch len(fields) {
	case 1:
		if strings.EqualFold(fields[0], "bearer") {
			return "", ErrInvalidToken
		}
		return fields[0], nil
	case 2:
		if !strings.EqualFold(fields[0], "bearer") {
			return "", ErrInvalidToken
		}
		return fields[1], nil
	}
	return "", ErrInvalidToken
}
