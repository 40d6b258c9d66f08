package target

import "errors"

// Target validation errors.
var (
	// ErrEmptyHost is returned when nothing remains after stripping the
	// scheme and path.
	ErrEmptyHost = errors.New("host is empty")

	// ErrInvalidHost is returned when the host name cannot be converted
	// to an ASCII DNS name.
	ErrInvalidHost = errors.New("invalid host name")

	// ErrInvalidPort is returned when the port is not a number in 1..65535.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidOnionAddress is returned for a malformed .onion name or
	// a v3 address whose checksum does not verify.
	ErrInvalidOnionAddress = errors.New("invalid onion address")

	// ErrV2AddressDeprecated is returned for 16-character v2 onion
	// addresses, which stopped working in October 2021.
	ErrV2AddressDeprecated = errors.New("v2 onion addresses are deprecated and no longer functional")
)
