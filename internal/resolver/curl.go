package resolver

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// ErrNoURL is returned when a curl command carries no quoted URL.
var ErrNoURL = errors.New("curl command has no url")

// Patterns for the pieces of a single-quoted curl command, the format
// produced by browser devtools "copy as cURL".
var (
	curlMethodPattern = regexp.MustCompile(`-X (\w+)`)
	curlURLPattern    = regexp.MustCompile(`curl '([^']*)'`)
	curlHeaderPattern = regexp.MustCompile(`-H '([^:]*): ([^']*)'`)
	curlDataPattern   = regexp.MustCompile(`--data-raw '([^']*)'`)
)

// ParseCurl converts a captured curl command into a request template
// for the given domain. Method defaults to GET when no -X flag is
// present, matching curl itself.
func ParseCurl(command, domainName string) (domain.RequestTemplate, error) {
	urlMatch := curlURLPattern.FindStringSubmatch(command)
	if urlMatch == nil {
		return domain.RequestTemplate{}, ErrNoURL
	}

	method := http.MethodGet
	if m := curlMethodPattern.FindStringSubmatch(command); m != nil {
		method = m[1]
	}

	headers := make(map[string]string)
	for _, match := range curlHeaderPattern.FindAllStringSubmatch(command, -1) {
		headers[match[1]] = match[2]
	}

	payload := ""
	if m := curlDataPattern.FindStringSubmatch(command); m != nil {
		payload = m[1]
	}

	return domain.RequestTemplate{
		Method:  method,
		URL:     urlMatch[1],
		Headers: headers,
		Payload: payload,
		Domain:  domainName,
	}, nil
}
