package shortener

import (
	"errors"
	"net/url"
)

// MaxURLLength bounds stored URLs; it also keeps the unique index on long_url
// within the btree row limit.
const MaxURLLength = 2048

// ValidateURL accepts only absolute http or https URLs with a host. The URL is
// not normalised: two spellings of the same address are distinct links.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsed.Scheme == "" {
		return errors.New("url must include scheme (http or https)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
