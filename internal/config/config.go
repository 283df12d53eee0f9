package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	// LogLevel is the level of logs to output (debug|info|warn|error)
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	// DBDriver selects the database dialect (mysql|postgres|sqlite)
	DBDriver string `env:"DB_DRIVER" default:"sqlite"`

	// DBConnectionString is the driver specific DSN used to open the database
	DBConnectionString string `env:"DB_CONNECTION_STRING" default:"file:elstracker.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`

	// DBQueryLogLevel is the level used when logging queries (debug|info)
	DBQueryLogLevel string `env:"DB_QUERY_LOG_LEVEL" default:"debug"`

	// DBMaxOpenConns overrides the connection pool size (0 = derive from GOMAXPROCS)
	DBMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" default:"0"`

	// ServerPort is the port the HTTP API will listen on
	ServerPort int `env:"SERVER_PORT" default:"8080"`

	// ServerReadTimeoutSeconds is the number of seconds before reading a request times out
	ServerReadTimeoutSeconds int `env:"SERVER_READ_TIMEOUT_SECONDS" default:"15"`

	// ServerWriteTimeoutSeconds is the number of seconds before writing a response times out
	ServerWriteTimeoutSeconds int `env:"SERVER_WRITE_TIMEOUT_SECONDS" default:"15"`

	// ShutdownTimeoutSeconds is the number of seconds to wait for graceful shutdown
	ShutdownTimeoutSeconds int `env:"SHUTDOWN_TIMEOUT_SECONDS" default:"15"`

	// NATSURL is the URL (with port) of the NATS server, empty disables NATS
	NATSURL string `env:"NATS_URL" default:""`

	// NATSClientPrefix is the prefix to use for the NATS client connection (prefix + hostname)
	NATSClientPrefix string `env:"NATS_CLIENT_PREFIX" default:"elstracker "`

	// NATSOutgoingBufferSize is the size of the outgoing buffer for NATS connections
	NATSOutgoingBufferSize int `env:"NATS_OUTGOING_BUFFER_SIZE" default:"1048576"` // 1MB

	// NATSRevalidateSubject is the subject revalidation messages are published on
	NATSRevalidateSubject string `env:"NATS_REVALIDATE_SUBJECT" default:"elstracker.revalidate"`

	// SeederSourceURL is the wiki page scraped for classes and specializations
	SeederSourceURL string `env:"SEEDER_SOURCE_URL" default:"https://elwiki.net"`

	// SeederFetchTimeoutSeconds bounds the wiki page fetch
	SeederFetchTimeoutSeconds int `env:"SEEDER_FETCH_TIMEOUT_SECONDS" default:"30"`

	// SeederUserAgent is sent with the wiki page request
	SeederUserAgent string `env:"SEEDER_USER_AGENT" default:"elstracker-seeder/1.0"`
}

func ParseConfigFromEnv() Config {
	return env.Must(env.ParseAsWithOptions[Config](env.Options{
		DefaultValueTagName: "default",
	}))
}
