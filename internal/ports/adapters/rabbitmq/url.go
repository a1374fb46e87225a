package rabbitmq

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that raw is an absolute amqp:// or amqps:// URL with a
// host. Credentials and a vhost path are allowed; a fragment is not.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		// url.Error echoes the input, password included.
		return errors.New("invalid rabbitmq url: cannot parse")
	}
	shown := Redact(raw)
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid rabbitmq url %q: absolute URL with host is required", shown)
	}
	if u.Fragment != "" {
		return fmt.Errorf("invalid rabbitmq url %q: fragment is not allowed", shown)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid rabbitmq url %q: host is required", shown)
	}
	switch strings.ToLower(u.Scheme) {
	case "amqp", "amqps":
	default:
		return fmt.Errorf("invalid rabbitmq url %q: scheme must be amqp or amqps", shown)
	}
	return nil
}

// Redact hides the password of raw for logs and errors.
func Redact(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
