// Package transport builds the HTTP capability shared by every stage of an
// audit.
//
// A single http.Transport is created per Client and handed out through two
// http.Client values: ProbeClient never follows redirects, so a probe sees
// exactly what the server answered for a disallowed path, while
// VerifyClient follows a bounded number of redirects as search engines and
// archives routinely redirect. Requests can be routed through a SOCKS5
// proxy (an external Tor daemon or the embedded one started by
// EmbeddedTor), paced with a token bucket, and decorated with a user agent
// and per-site headers.
package transport
