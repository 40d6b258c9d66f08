// Package target normalizes the hosts given on the command line.
//
// Users paste URLs, hostnames in mixed case, internationalized names and
// onion addresses. Parse reduces all of them to the bare "host[:port]"
// form used to build robots.txt and probe URLs, converting IDNs to
// punycode with golang.org/x/net/idna and verifying the checksum of v3
// onion addresses.
package target
