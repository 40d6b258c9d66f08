package verify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Built-in engine names.
const (
	EngineSearch       = "search"
	EngineArchive      = "archive"
	EngineArchiveToday = "archive-today"
)

// Template placeholders.
const (
	placeholderHost   = "{host}"
	placeholderPath   = "{path}"
	placeholderTarget = "{target}"
)

// Engine describes one external service.
type Engine struct {
	// Name identifies the engine on the command line and in reports.
	Name string
	// Service is the human name of the queried site.
	Service string
	// Verb describes a hit, as in "indexed on Bing".
	Verb string
	// QueryURLTemplate may contain {host}, {path} and {target}, where
	// {target} is the query-escaped "host/path".
	QueryURLTemplate string
	// Found decides from the response body whether the path is known.
	Found func(body string) bool
	// Extract optionally lists the URLs of host mentioned in body.
	Extract func(body, host string) []string
}

// QueryURL substitutes host and path into the template.
func (e Engine) QueryURL(host, path string) string {
	r := strings.NewReplacer(
		placeholderTarget, url.QueryEscape(host+"/"+path),
		placeholderHost, host,
		placeholderPath, path,
	)
	return r.Replace(e.QueryURLTemplate)
}

// Title returns the engine name for headings, e.g. "Archive-Today".
func (e Engine) Title() string {
	return cases.Title(language.English).String(e.Name)
}

// Search queries Bing for site:host/path. A page without the "no results"
// marker means the path is indexed.
func Search() Engine {
	return Engine{
		Name:             EngineSearch,
		Service:          "Bing",
		Verb:             "indexed",
		QueryURLTemplate: "https://www.bing.com/search?q=site:" + placeholderTarget,
		Found:            missing("no results"),
		Extract:          citations,
	}
}

// Archive queries the Wayback Machine capture list for host/path.
func Archive() Engine {
	return Engine{
		Name:             EngineArchive,
		Service:          "web.archive.org",
		Verb:             "archived",
		QueryURLTemplate: "https://web.archive.org/web/*/" + placeholderHost + "/" + placeholderPath,
		Found:            hasCaptures,
	}
}

// ArchiveToday queries archive.today for snapshots of host/path.
func ArchiveToday() Engine {
	return Engine{
		Name:             EngineArchiveToday,
		Service:          "archive.is",
		Verb:             "archived",
		QueryURLTemplate: "https://archive.ph/" + placeholderHost + "/" + placeholderPath,
		Found:            missing("no results"),
	}
}

// Builtins returns the built-in engines in a stable order.
func Builtins() []Engine {
	return []Engine{Search(), Archive(), ArchiveToday()}
}

// Custom builds an engine from configuration. Exactly one of foundMarker
// (presence means found) and missingMarker (presence means not found)
// must be set. Markers match case-insensitively.
func Custom(name, template, foundMarker, missingMarker string) (Engine, error) {
	if name == "" {
		return Engine{}, ErrEngineName
	}
	service, err := validateTemplate(template)
	if err != nil {
		return Engine{}, fmt.Errorf("engine %q: %w", name, err)
	}
	if (foundMarker == "") == (missingMarker == "") {
		return Engine{}, fmt.Errorf("engine %q: %w", name, ErrMarkerRequired)
	}

	e := Engine{
		Name:             name,
		Service:          service,
		Verb:             "found",
		QueryURLTemplate: template,
	}
	if foundMarker != "" {
		e.Found = present(foundMarker)
	} else {
		e.Found = missing(missingMarker)
	}
	return e, nil
}

// validateTemplate checks that template is an absolute http(s) URL that
// mentions the target, and returns its host.
func validateTemplate(template string) (string, error) {
	if !strings.Contains(template, placeholderHost) && !strings.Contains(template, placeholderTarget) {
		return "", fmt.Errorf("%w: %q references neither %s nor %s", ErrInvalidTemplate, template, placeholderHost, placeholderTarget)
	}
	probe := Engine{QueryURLTemplate: template}.QueryURL("example.com", "path")
	u, err := url.Parse(probe)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidTemplate, template)
	}
	return u.Host, nil
}

// present returns a predicate that is true when marker occurs in the body,
// ignoring case.
func present(marker string) func(string) bool {
	marker = strings.ToLower(marker)
	return func(body string) bool {
		return strings.Contains(strings.ToLower(body), marker)
	}
}

// hasCaptures matches the Wayback Machine capture summary.
func hasCaptures(body string) bool {
	return strings.Contains(body, "captures")
}

// missing returns a predicate that is true when marker does not occur.
func missing(marker string) func(string) bool {
	has := present(marker)
	return func(body string) bool {
		return !has(body)
	}
}

// citations returns the text of every <cite> element that mentions host.
// Search result pages print the result URL in these elements.
func citations(body, host string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	doc.Find("cite").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || !strings.Contains(text, host) {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		urls = append(urls, text)
	})
	return urls
}
