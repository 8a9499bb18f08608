package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"telegram-expiry-reminder/internal/domain"
)

// ActionDelete is the action tag carried by delete buttons.
const ActionDelete = "delete"

const tokenSep = "_"

// EncodeDeleteToken builds the inline payload "delete_<id>".
func EncodeDeleteToken(productID int64) string {
	return ActionDelete + tokenSep + strconv.FormatInt(productID, 10)
}

// DecodeDeleteToken parses a payload produced by EncodeDeleteToken.
// Anything else, including signs, spaces or a zero id, is ErrMalformedToken.
func DecodeDeleteToken(token string) (int64, error) {
	rest, ok := strings.CutPrefix(token, ActionDelete+tokenSep)
	if !ok || rest == "" {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedToken, token)
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", domain.ErrMalformedToken, token)
		}
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedToken, token)
	}
	return id, nil
}

// IsDeleteToken is a cheap routing check; it does not validate the id.
func IsDeleteToken(data string) bool {
	return strings.HasPrefix(data, ActionDelete+tokenSep)
}
