package cmd

import (
	"fmt"
	"net/url"

	"github.com/klwxsrx/edu-resource-client/pkg/env"
	"github.com/klwxsrx/edu-resource-client/pkg/http"
	"github.com/klwxsrx/edu-resource-client/pkg/strings"
)

type HTTPClientFactory struct {
	impl http.ClientFactory
}

func NewHTTPClientFactory(
	opts ...http.ClientOption,
) HTTPClientFactory {
	return HTTPClientFactory{
		impl: http.NewClientFactory(opts...),
	}
}

// InitClient builds the client of dest. Its base url comes from <DEST>_SERVICE_URL,
// fallbackURL is used when the variable is unset.
func (f HTTPClientFactory) InitClient(
	dest http.Destination,
	fallbackURL string,
	extraOpts ...http.ClientOption,
) (http.Client, error) {
	urlEnv := fmt.Sprintf("%s_SERVICE_URL", strings.ToScreamingSnakeCase(string(dest)))
	baseURL, err := env.ParseWithDefault(urlEnv, fallbackURL)
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%s: %q is not an absolute http url", urlEnv, baseURL)
	}

	return f.impl.InitClient(dest, baseURL, extraOpts...), nil
}
