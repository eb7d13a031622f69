package configuration

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultPort = 5432

type DatabaseOptions struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

var keyAliases = map[string]string{
	"host":     "host",
	"server":   "host",
	"port":     "port",
	"database": "database",
	"username": "username",
	"userid":   "username",
	"user":     "username",
	"password": "password",
	"sslmode":  "sslmode",
}

var sslModeAliases = map[string]string{
	"verifyfull": "verify-full",
	"verifyca":   "verify-ca",
}

// ParseConnectionString reads a `key=value;key=value` connection string.
// Keys are matched case- and space-insensitively; unknown keys are ignored.
func ParseConnectionString(raw string) (*DatabaseOptions, error) {
	parts := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key := strings.ToLower(strings.Join(strings.Fields(k), ""))
		if canonical, known := keyAliases[key]; known {
			parts[canonical] = strings.TrimSpace(v)
		}
	}

	opts := &DatabaseOptions{
		Host:     parts["host"],
		Port:     defaultPort,
		Name:     parts["database"],
		User:     parts["username"],
		Password: parts["password"],
		SSLMode:  "require",
	}
	if p, ok := parts["port"]; ok && p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", p, err)
		}
		opts.Port = port
	}
	if m, ok := parts["sslmode"]; ok && m != "" {
		mode := strings.ToLower(m)
		if alias, known := sslModeAliases[mode]; known {
			mode = alias
		}
		opts.SSLMode = mode
	}

	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	return opts, nil
}

// URL renders the options as a postgres:// URL accepted by pgxpool.ParseConfig.
func (d *DatabaseOptions) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted is URL with the password masked, for logs.
func (d *DatabaseOptions) Redacted() string {
	c := *d
	if c.Password != "" {
		c.Password = "xxxxx"
	}
	return c.URL()
}
