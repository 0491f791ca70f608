package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadParts splits the callback payload into parts using the given separator.
func PayloadParts(c tele.Context, sep string) ([]string, error) {
	p := CallbackPayload(c)
	if p == "" {
		return nil, strconv.ErrSyntax
	}
	return strings.Split(p, sep), nil
}

// PayloadKeyInt64 parses payloads like "product|7" into a string key and an int64.
func PayloadKeyInt64(c tele.Context, sep string) (string, int64, error) {
	parts, err := PayloadParts(c, sep)
	if err != nil {
		return "", 0, err
	}
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, strconv.ErrSyntax
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, err
	}
	return parts[0], n, nil
}
