package database

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds database connection settings. URL, when set, wins over the discrete fields.
type Config struct {
	URL            string `yaml:"url" envconfig:"DATABASE_URL"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Configured reports whether enough fields are present to open a connection.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.URL) != "" || (c.Host != "" && c.Name != "")
}

// DSN returns a postgres URL usable by both lib/pq and golang-migrate.
func (c Config) DSN() string {
	if u := strings.TrimSpace(c.URL); u != "" {
		return u
	}
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(c.User, c.Password).String(), c.Host, port, c.Name, url.QueryEscape(ssl))
}

// Target describes host and database name for logs without leaking credentials.
func (c Config) Target() (host, name string) {
	if u, err := url.Parse(c.DSN()); err == nil {
		return u.Host, strings.TrimPrefix(u.Path, "/")
	}
	return c.Host, c.Name
}
