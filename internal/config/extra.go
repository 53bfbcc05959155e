package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// extraURLsDocument is the YAML shape of the additional-URLs file.
type extraURLsDocument struct {
	ExtraURLsToCheck []string `yaml:"extra_urls_to_check"`
}

// LoadExtraURLs reads a YAML file of additional paths to check (pages
// deliberately absent from the sitemap) and converts each to a full URL on
// the given hostname. Hostnames with a localhost-style port get http, since
// local test servers rarely speak TLS.
func LoadExtraURLs(path, hostname string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read extra URLs file %s: %w", path, err)
	}

	var doc extraURLsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse extra URLs file %s: %w", path, err)
	}

	scheme := "https"
	if strings.HasPrefix(hostname, "localhost:") {
		scheme = "http"
	}

	urls := make([]string, 0, len(doc.ExtraURLsToCheck))
	for _, p := range doc.ExtraURLsToCheck {
		urls = append(urls, fmt.Sprintf("%s://%s/%s", scheme, hostname, strings.TrimPrefix(p, "/")))
	}
	return urls, nil
}
