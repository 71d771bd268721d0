// Package parser extracts the structured fields of a custom profile from its
// raw configuration text.
//
// The text is expected to be a V2Ray/Xray or sing-box style JSON document.
// Comments are allowed. Only the display name hint and the first proxy
// server's host and port are extracted; everything else is left to the
// tunnel runtime.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/muhammadmuzzammil1998/jsonc"
)

var (
	// ErrEmpty indicates the configuration text is empty.
	ErrEmpty = errors.New("configuration is empty")
	// ErrSyntax indicates the configuration text is not valid JSON.
	ErrSyntax = errors.New("malformed configuration")
	// ErrNotObject indicates the top-level JSON value is not an object.
	ErrNotObject = errors.New("configuration must be a JSON object")
)

// ParseError is returned when raw configuration text cannot be parsed.
type ParseError struct {
	// Cause is a human-readable description of why parsing failed.
	Cause string
	// Err is the underlying sentinel or decoder error.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return e.Cause
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parsed holds the fields extracted from a configuration document.
type Parsed struct {
	// DisplayName is the name hint found in the document, "" when absent.
	DisplayName string
	// Host is the proxy server host, "" when absent.
	Host string
	// Port is the proxy server port, 0 when absent.
	Port int
}

// Func is the signature of Parse, for injecting alternative parsers.
type Func func(text string) (*Parsed, error)

// v2rayProtocols are the outbound protocols that carry a proxy server.
var v2rayProtocols = map[string]bool{
	"vmess":       true,
	"vless":       true,
	"trojan":      true,
	"shadowsocks": true,
	"socks":       true,
	"http":        true,
	"hysteria2":   true,
	"wireguard":   true,
}

// singboxTypes are the sing-box outbound types with server/server_port.
var singboxTypes = map[string]bool{
	"vmess":       true,
	"vless":       true,
	"trojan":      true,
	"shadowsocks": true,
	"socks":       true,
	"http":        true,
	"hysteria":    true,
	"hysteria2":   true,
	"tuic":        true,
	"shadowtls":   true,
	"anytls":      true,
	"ssh":         true,
	"wireguard":   true,
}

// Parse parses raw configuration text.
// Text that is valid but has no recognizable server yields a Parsed with
// Host and Port unset rather than an error.
func Parse(text string) (*Parsed, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Cause: ErrEmpty.Error(), Err: ErrEmpty}
	}

	root, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	parsed := &Parsed{
		DisplayName: strings.TrimSpace(firstString(root, "remarks", "name")),
	}
	parsed.Host, parsed.Port = extractServer(root)

	return parsed, nil
}

// decodeObject decodes text into a JSON object, tolerating comments.
func decodeObject(text string) (map[string]any, error) {
	if off := straySlash(text); off >= 0 {
		return nil, &ParseError{
			Cause: fmt.Sprintf("%s: unexpected '/' at offset %d", ErrSyntax, off),
			Err:   ErrSyntax,
		}
	}

	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON([]byte(text))))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, &ParseError{
			Cause: fmt.Sprintf("%s: %v", ErrSyntax, err),
			Err:   fmt.Errorf("%w: %w", ErrSyntax, err),
		}
	}

	// Anything after the first value is a syntax error too
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &ParseError{
			Cause: fmt.Sprintf("%s: unexpected content after top-level value", ErrSyntax),
			Err:   ErrSyntax,
		}
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, &ParseError{Cause: ErrNotObject.Error(), Err: ErrNotObject}
	}
	return obj, nil
}

// extractServer finds the proxy server host and port.
// The flat form wins over outbounds.
func extractServer(root map[string]any) (string, int) {
	if host := firstString(root, "server", "address"); host != "" {
		return host, firstPort(root, "port", "server_port")
	}

	outbounds, _ := root["outbounds"].([]any)
	for _, item := range outbounds {
		ob, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if protocol := stringField(ob, "protocol"); v2rayProtocols[protocol] {
			return v2rayServer(protocol, objectField(ob, "settings"))
		}
		if typ := stringField(ob, "type"); singboxTypes[typ] {
			return stringField(ob, "server"), firstPort(ob, "server_port")
		}
	}

	return "", 0
}

// v2rayServer reads address and port from V2Ray/Xray outbound settings.
func v2rayServer(protocol string, settings map[string]any) (string, int) {
	if settings == nil {
		return "", 0
	}

	if protocol == "wireguard" {
		peer := firstElement(settings, "peers")
		return splitEndpoint(stringField(peer, "endpoint"))
	}

	for _, key := range []string{"vnext", "servers"} {
		if srv := firstElement(settings, key); srv != nil {
			return stringField(srv, "address"), firstPort(srv, "port")
		}
	}

	// Newer Xray outbounds may put address/port directly in settings
	return stringField(settings, "address"), firstPort(settings, "port")
}

// splitEndpoint splits a "host:port" endpoint.
func splitEndpoint(endpoint string) (string, int) {
	if endpoint == "" {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, 0
	}
	return host, toPort(portStr)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func objectField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]any)
	return obj
}

func firstElement(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	list, _ := m[key].([]any)
	if len(list) == 0 {
		return nil
	}
	obj, _ := list[0].(map[string]any)
	return obj
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(m, key); s != "" {
			return s
		}
	}
	return ""
}

func firstPort(m map[string]any, keys ...string) int {
	if m == nil {
		return 0
	}
	for _, key := range keys {
		if port := toPort(m[key]); port != 0 {
			return port
		}
	}
	return 0
}

// toPort converts a JSON number or numeric string to a port.
// Out of range or non-numeric values yield 0.
func toPort(v any) int {
	var n int64
	switch val := v.(type) {
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return 0
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
		if err != nil {
			return 0
		}
		n = i
	default:
		return 0
	}
	if n < 1 || n > 65535 {
		return 0
	}
	return int(n)
}

// straySlash returns the offset of the first '/' outside a string that does
// not open a comment, or -1. jsonc drops such bytes instead of failing.
// An unterminated block comment counts as stray.
func straySlash(text string) int {
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/':
			rest := text[i+1:]
			switch {
			case strings.HasPrefix(rest, "/"):
				end := strings.IndexByte(rest, '\n')
				if end < 0 {
					return -1
				}
				i += end + 1
			case strings.HasPrefix(rest, "*"):
				end := strings.Index(rest[1:], "*/")
				if end < 0 {
					return i
				}
				i += end + 3
			default:
				return i
			}
		}
	}
	return -1
}
