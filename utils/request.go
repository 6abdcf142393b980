package utils

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultClientIPHeaders are consulted when TRUSTED_IP_HEADERS is unset.
var DefaultClientIPHeaders = []string{"X-Forwarded-For", "X-Real-IP", "Client-IP"}

// ClientIP returns the first public address found in headers, falling back
// to the connection address. Clients can set these headers themselves, so
// they are only trustworthy behind a proxy that overwrites them; pass no
// headers when the server is reached directly.
func ClientIP(c *fiber.Ctx, headers []string) string {
	for _, header := range headers {
		value := c.Get(header)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		first = strings.TrimSpace(first)
		if isPublicIP(first) {
			return first
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

func isPublicIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() && !ip.IsMulticast()
}
