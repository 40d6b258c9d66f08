package target

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Target is a normalized audit target.
type Target struct {
	// Host is "name" or "name:port", lowercase and ASCII.
	Host string
	// Name is Host without the port.
	Name string
	// Onion is true for .onion services, which need a SOCKS5 proxy.
	Onion bool
}

// String returns the host.
func (t Target) String() string {
	return t.Host
}

// Parse normalizes raw into a Target.
//
// A scheme, userinfo, path, query and fragment are dropped. IP literals
// are kept as given; DNS names are converted with the IDNA lookup profile;
// .onion names must be valid v3 addresses.
func Parse(raw string) (Target, error) {
	host := strings.TrimSpace(raw)
	if i := strings.Index(host, "://"); i != -1 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i != -1 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, "@"); i != -1 {
		host = host[i+1:]
	}
	if host == "" {
		return Target{}, ErrEmptyHost
	}

	name, port, err := splitPort(host)
	if err != nil {
		return Target{}, err
	}
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return Target{}, ErrEmptyHost
	}

	t := Target{}
	switch {
	case net.ParseIP(strings.Trim(name, "[]")) != nil:
		if strings.Contains(name, ":") && !strings.HasPrefix(name, "[") {
			name = "[" + name + "]"
		}
		t.Name = name
	case IsOnion(name):
		name = strings.ToLower(name)
		if err := validateOnion(name); err != nil {
			return Target{}, fmt.Errorf("%s: %w", raw, err)
		}
		t.Name = name
		t.Onion = true
	default:
		ascii, err := idna.Lookup.ToASCII(name)
		if err != nil {
			return Target{}, fmt.Errorf("%w %q: %w", ErrInvalidHost, raw, err)
		}
		t.Name = ascii
	}

	t.Host = t.Name
	if port != "" {
		t.Host = net.JoinHostPort(strings.Trim(t.Name, "[]"), port)
	}
	return t, nil
}

// ParseAll normalizes every raw host and drops duplicates, keeping the
// first occurrence order.
func ParseAll(raws []string) ([]Target, error) {
	seen := make(map[string]struct{}, len(raws))
	targets := make([]Target, 0, len(raws))
	for _, raw := range raws {
		t, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t.Host]; dup {
			continue
		}
		seen[t.Host] = struct{}{}
		targets = append(targets, t)
	}
	return targets, nil
}

// splitPort separates an optional port from host. Bare IPv6 literals
// without brackets are returned unchanged.
func splitPort(host string) (name, port string, err error) {
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		if end == -1 {
			return "", "", fmt.Errorf("%w %q", ErrInvalidHost, host)
		}
		name, rest := host[:end+1], host[end+1:]
		if rest == "" {
			return name, "", nil
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", fmt.Errorf("%w %q", ErrInvalidHost, host)
		}
		port = rest[1:]
		return name, port, validatePort(port)
	}

	if strings.Count(host, ":") != 1 {
		return host, "", nil
	}
	name, port, _ = strings.Cut(host, ":")
	return name, port, validatePort(port)
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%w %q", ErrInvalidPort, port)
	}
	return nil
}
