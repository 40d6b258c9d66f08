// Package config holds the options of an audit run and loads the optional
// YAML configuration file (.domo) with per-site request settings and
// custom verifier engines.
package config
