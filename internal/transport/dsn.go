package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnsupportedScheme is returned for DSNs whose scheme has no factory.
var ErrUnsupportedScheme = errors.New("unsupported transport scheme")

// Factory builds a single transport from a parsed DSN.
type Factory func(dsn *url.URL) (Transport, error)

var factories = map[string]Factory{
	"null":     func(*url.URL) (Transport, error) { return NullTransport{}, nil },
	"failing":  func(*url.URL) (Transport, error) { return FailingTransport{}, nil },
	"smtp":     smtpFromDSN,
	"smtps":    smtpFromDSN,
	"telegram": telegramFromDSN,
	"twilio":   twilioFromDSN,
	"ntfy":     ntfyFromDSN,
}

// FromDSN builds a transport from a DSN string. "a || b" builds a failover
// chain and "a && b" a round-robin group; the two cannot be mixed. A "||" or
// "&&" only separates members when another scheme://... follows it, so the
// sequences may appear inside passwords and query values.
func FromDSN(dsn string, logger *slog.Logger) (Transport, error) {
	dsn = strings.TrimSpace(dsn)
	failover := splitMembers(dsn, "||")
	roundRobin := splitMembers(dsn, "&&")
	switch {
	case len(failover) > 1 && len(roundRobin) > 1:
		return nil, fmt.Errorf("DSN %q mixes failover (||) and round-robin (&&)", RedactDSN(dsn))
	case len(failover) > 1:
		members, err := buildAll(failover)
		if err != nil {
			return nil, err
		}
		return NewFailover(logger, members...), nil
	case len(roundRobin) > 1:
		members, err := buildAll(roundRobin)
		if err != nil {
			return nil, err
		}
		return NewRoundRobin(logger, members...), nil
	}
	return fromSingleDSN(dsn)
}

var memberStart = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9+.-]*://`)

// splitMembers splits dsn at the occurrences of sep that are followed by the
// scheme of the next member. The result has one element when dsn is not
// composed with sep.
func splitMembers(dsn, sep string) []string {
	var members []string
	rest := dsn
	offset := 0
	for {
		i := strings.Index(rest[offset:], sep)
		if i < 0 {
			break
		}
		i += offset
		if memberStart.MatchString(rest[i+len(sep):]) {
			members = append(members, strings.TrimSpace(rest[:i]))
			rest = rest[i+len(sep):]
			offset = 0
			continue
		}
		offset = i + len(sep)
	}
	return append(members, strings.TrimSpace(rest))
}

func buildAll(parts []string) ([]Transport, error) {
	out := make([]Transport, 0, len(parts))
	for _, p := range parts {
		t, err := fromSingleDSN(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func fromSingleDSN(dsn string) (Transport, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN %q: %w", redact(dsn), err)
	}
	factory, ok := factories[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
	t, err := factory(u)
	if err != nil {
		return nil, fmt.Errorf("building %s transport: %w", u.Scheme, err)
	}
	return t, nil
}

// sensitiveQueryKeys are query parameters that carry credentials.
var sensitiveQueryKeys = map[string]bool{
	"token":    true,
	"password": true,
	"secret":   true,
	"api_key":  true,
}

// RedactDSN hides the credentials of every member of a composed DSN: the
// userinfo password and any credential query parameter.
func RedactDSN(dsn string) string {
	for _, sep := range []string{"||", "&&"} {
		parts := splitMembers(dsn, sep)
		if len(parts) < 2 {
			continue
		}
		for i, p := range parts {
			parts[i] = RedactDSN(p)
		}
		return strings.Join(parts, " "+sep+" ")
	}
	return redact(strings.TrimSpace(dsn))
}

// redact hides the credentials of a single DSN.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil {
		query := redactQuery(u.RawQuery)
		if u.User == nil && query == u.RawQuery {
			return dsn
		}
		u.RawQuery = query
		if u.User == nil {
			return u.String()
		}
		return u.Redacted()
	}
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if at := strings.Index(rest, "@"); at >= 0 {
		rest = "xxxxx" + rest[at:]
	}
	if base, rawQuery, found := strings.Cut(rest, "?"); found {
		rest = base + "?" + redactQuery(rawQuery)
	}
	return scheme + "://" + rest
}

// redactQuery masks credential parameters in a raw query, keeping the order
// and encoding of everything else.
func redactQuery(rawQuery string) string {
	if rawQuery == "" {
		return rawQuery
	}
	pairs := strings.Split(rawQuery, "&")
	for i, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if name, err := url.QueryUnescape(key); err == nil && sensitiveQueryKeys[strings.ToLower(name)] {
			pairs[i] = key + "=xxxxx"
		}
	}
	return strings.Join(pairs, "&")
}

func smtpFromDSN(u *url.URL) (Transport, error) {
	if u.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	q := u.Query()
	cfg := SMTPConfig{
		Host:       u.Hostname(),
		Port:       587,
		FromAddr:   q.Get("from"),
		Encryption: q.Get("encryption"),
	}
	if u.Scheme == "smtps" {
		cfg.Port = 465
		cfg.Encryption = "ssl_tls"
	}
	if cfg.Encryption == "" {
		cfg.Encryption = "starttls"
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", p, err)
		}
		cfg.Port = port
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	if cfg.FromAddr == "" {
		return nil, errors.New("missing from query parameter")
	}
	return NewSMTPTransport(cfg), nil
}

func telegramFromDSN(u *url.URL) (Transport, error) {
	if u.User == nil || u.User.Username() == "" {
		return nil, errors.New("missing bot token")
	}
	token := u.User.Username()
	if secret, ok := u.User.Password(); ok {
		// Bot tokens look like "123:abc", which url.Parse splits at the colon.
		token += ":" + secret
	}
	t := NewTelegramTransport(token, u.Query().Get("channel"))
	if host := u.Host; host != "" && host != "default" {
		t.WithBaseURL("https://" + host)
	}
	return t, nil
}

func twilioFromDSN(u *url.URL) (Transport, error) {
	if u.User == nil {
		return nil, errors.New("missing account SID and auth token")
	}
	token, _ := u.User.Password()
	from := u.Query().Get("from")
	if from == "" {
		return nil, errors.New("missing from query parameter")
	}
	t := NewTwilioTransport(u.User.Username(), token, from)
	if host := u.Host; host != "" && host != "default" {
		t.WithBaseURL("https://" + host)
	}
	return t, nil
}

func ntfyFromDSN(u *url.URL) (Transport, error) {
	topic := strings.Trim(u.Path, "/")
	if topic == "" {
		return nil, errors.New("missing topic")
	}
	q := u.Query()
	scheme := "https"
	if q.Get("secure") == "false" {
		scheme = "http"
	}
	base := ""
	if u.Host != "" && u.Host != "default" {
		base = scheme + "://" + u.Host
	}
	return NewNtfyTransport(base, topic, q.Get("token")), nil
}
