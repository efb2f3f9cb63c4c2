package app

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	queryCommentRegex    = regexp.MustCompile(`--[^\n]*`)
)

// NormalizeDBURL adds disable_prepared_binary_result=yes for poolers that
// cannot handle binary results of prepared statements. An explicit value in
// the URL wins.
func NormalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	raw = strings.TrimSpace(raw)
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.Trim(strings.TrimPrefix(token, "dbname="), `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}

// dbNameFromPath names a SQLite database after its file, "ledger" for
// "/data/ledger.sqlite3". Query parameters of a file: URI are dropped.
func dbNameFromPath(path string) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || base == ":memory:" {
		return "memory"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func formatDBQueryForTrace(query string) string {
	query = queryCommentRegex.ReplaceAllString(query, " ")
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := strings.TrimSuffix(queryWhitespaceRegex.ReplaceAllString(query, " "), ";")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
