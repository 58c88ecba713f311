package errors

import (
	"net"
	"strings"
	"unicode"
)

// ValidateFilePath validates a local file path given on the command line.
//
// Rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//
// The special path "-" (stdin/stdout) is accepted.
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateListenAddr validates a host:port listen address for the HTTP service.
// The host part may be empty (":8080").
func ValidateListenAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return New(ErrCodeInvalidInput, "listen address cannot be empty")
	}
	if _, port, err := net.SplitHostPort(addr); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid listen address %q", addr)
	} else if port == "" {
		return New(ErrCodeInvalidInput, "listen address %q has no port", addr)
	}
	return nil
}
