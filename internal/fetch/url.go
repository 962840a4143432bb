package fetch

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// archiveExtensions are stripped by URLFileNameNoExt, longest first.
var archiveExtensions = []string{".tar.gz", ".tar.bz2", ".tgz", ".zip"}

// URLFileName returns the last path segment of rawURL.
func URLFileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	return name, nil
}

// URLFileNameNoExt returns the file name of rawURL without its archive
// extension, e.g. "freetype-2.7" for ".../freetype-2.7.tar.gz".
func URLFileNameNoExt(rawURL string) (string, error) {
	name, err := URLFileName(rawURL)
	if err != nil {
		return "", err
	}
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), nil
		}
	}
	return strings.TrimSuffix(name, path.Ext(name)), nil
}
