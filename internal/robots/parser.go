package robots

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/domo/internal/model"
)

const (
	// directive is the only keyword that contributes paths.
	directive = "Disallow"

	// separator splits a Disallow line from its value. It is matched
	// exactly, so "Disallow:/x" and "Disallow: x" contribute nothing.
	separator = ": /"

	// wildcard marks a Disallow value as a pattern.
	wildcard = "*"
)

// Parser turns raw robots.txt text into a PathSet.
type Parser struct {
	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets the logger that receives pattern warnings.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the Disallow paths of raw into a frozen PathSet.
//
// Wildcard values are matched against host and every match is inserted.
// Patterns that fail to compile are logged at warn level and returned in
// skipped; they never fail the parse.
func (p *Parser) Parse(raw, host string) (paths *model.PathSet, skipped []string) {
	paths = model.NewPathSet()

	for line := range strings.Lines(raw) {
		line = strings.TrimRight(line, "\n")
		if !strings.HasPrefix(line, directive) {
			continue
		}

		_, value, ok := strings.Cut(line, separator)
		if !ok {
			continue
		}

		value = model.NormalizePath(value)
		if value == "" {
			continue
		}

		if !strings.Contains(value, wildcard) {
			paths.Add(value)
			continue
		}

		matches, err := expandWildcard(value, host)
		if err != nil {
			p.logger.Warn("skipping Disallow pattern",
				"pattern", value,
				"error", err,
			)
			skipped = append(skipped, value)
			continue
		}
		for _, m := range matches {
			paths.Add(m)
		}
	}

	paths.Freeze()
	return paths, skipped
}

// Parse is a convenience wrapper around a Parser that logs to slog.Default.
func Parse(raw, host string) *model.PathSet {
	paths, _ := NewParser().Parse(raw, host)
	return paths
}

// expandWildcard returns every non-overlapping substring of host matched
// by pattern, where '*' stands for any substring. The remaining characters
// keep their regular expression meaning, so "$" still anchors the end.
func expandWildcard(pattern, host string) ([]string, error) {
	re, err := compileWildcard(pattern)
	if err != nil {
		return nil, err
	}
	return re.FindAllString(host, -1), nil
}

// compileWildcard converts a Disallow wildcard into a regular expression.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(strings.ReplaceAll(pattern, wildcard, ".*"))
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}
