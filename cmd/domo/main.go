// Package main provides the entry point for the domo CLI.
//
// domo audits the exclusion policy of a website: it reads the Disallow
// entries of robots.txt, requests each of them and reports which ones are
// publicly available, and optionally whether search engines and web
// archives have indexed them.
//
// Usage:
//
//	domo audit www.example.com
//	domo audit www.example.com --only-success --search --archive
//
// See --help for all available options.
package main

func main() {
	Execute()
}
