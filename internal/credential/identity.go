package credential

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the current user as described by the bearer token.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

// ParseIdentity extracts the user id ("id" claim) and, when present, the
// subject and name from token. The signature is not verified; the server
// remains the authority and the result is only used for display decisions.
func ParseIdentity(token string) (Identity, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	id, err := claimInt(claims, "id")
	if err != nil {
		return Identity{}, err
	}

	ident := Identity{UserID: id}
	ident.Email, _ = claims.GetSubject()
	if name, ok := claims["name"].(string); ok {
		ident.Name = name
	}
	return ident, nil
}

func claimInt(claims jwt.MapClaims, key string) (int64, error) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("claim %q: %w", key, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("token has no %q claim", key)
	default:
		return 0, fmt.Errorf("claim %q has unexpected type %T", key, v)
	}
}
