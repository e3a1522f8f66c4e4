package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for a lease server.
type ServerConfig struct {
	// Endpoint the server listens on. The format depends on the transport:
	// "host:port" for tcp and http, a socket path for unix.
	Endpoint string

	// Timeout for reads and writes on a single connection
	TimeoutSecond int64

	// Logging configuration
	LogLevel string
}

// String renders the configuration for the startup log
func (c *ServerConfig) String() string {
	var sb strings.Builder

	section := func(title string) {
		sb.WriteString("\n" + strings.ToUpper(title) + "\n")
	}
	field := func(name, value string) {
		fmt.Fprintf(&sb, "  %-22s: %s\n", name, value)
	}

	section("RPC Server")
	field("Endpoint", c.Endpoint)
	field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	section("Logging")
	field("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the connection parameters shared by all client
// transports.
type ClientConfig struct {
	// Endpoints lists the servers to connect to. Requests are spread
	// round robin over all connections to all endpoints.
	Endpoints []string

	// Timeout for a single request round trip
	TimeoutSecond int

	// RetryCount is the total number of attempts per request
	RetryCount int

	// ConnectionsPerEndpoint sizes the connection pool (minimum 1)
	ConnectionsPerEndpoint int
}

// String renders the configuration for the startup log
func (c *ClientConfig) String() string {
	var sb strings.Builder

	section := func(title string) {
		sb.WriteString("\n" + strings.ToUpper(title) + "\n")
	}
	field := func(name, value string) {
		fmt.Fprintf(&sb, "  %-22s: %s\n", name, value)
	}

	perEndpoint := c.ConnectionsPerEndpoint
	if perEndpoint < 1 {
		perEndpoint = 1
	}

	section("Client Configuration")
	field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	field("Retry Count", strconv.Itoa(c.RetryCount))
	field("Connections Per Endpoint", strconv.Itoa(perEndpoint))

	section("Endpoints")
	for i, endpoint := range c.Endpoints {
		field(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
