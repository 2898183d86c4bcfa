package script

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// registerHTTPFuncs installs http_get/http_post/http_head. Built on
// stdlib net/http directly, a thin wrapper over *http.Client rather
// than a third-party HTTP library.
func (b *Bridge) registerHTTPFuncs() {
	b.set("http_get", b.hostHTTP("GET"))
	b.set("http_post", b.hostHTTP("POST"))
	b.set("http_head", b.hostHTTP("HEAD"))
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// hostHTTP builds the host function for one HTTP method, reading an
// options object `{url, params, headers, body}`.
func (b *Bridge) hostHTTP(method string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		opts, ok := call.Argument(0).Export().(map[string]interface{})
		if !ok {
			panic(b.throw(argError(method, "argument must be an options object")))
		}

		rawURL, _ := opts["url"].(string)
		if rawURL == "" {
			panic(b.throw(argError(method, "options.url is required")))
		}

		if params, ok := opts["params"].(map[string]interface{}); ok {
			parsed, err := url.Parse(rawURL)
			if err != nil {
				panic(b.throw(argError(method, err.Error())))
			}
			q := parsed.Query()
			for k, v := range params {
				q.Set(k, toQueryString(v))
			}
			parsed.RawQuery = q.Encode()
			rawURL = parsed.String()
		}

		var bodyReader io.Reader
		if body, ok := opts["body"].(string); ok {
			bodyReader = strings.NewReader(body)
		}

		req, err := http.NewRequest(method, rawURL, bodyReader)
		if err != nil {
			panic(b.throw(argError(method, err.Error())))
		}
		if headers, ok := opts["headers"].(map[string]interface{}); ok {
			for k, v := range headers {
				req.Header.Set(k, toQueryString(v))
			}
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			panic(b.throw(argError(method, err.Error())))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			panic(b.throw(argError(method, err.Error())))
		}

		headers := make(map[string]interface{}, len(resp.Header))
		for k := range resp.Header {
			headers[k] = resp.Header.Get(k)
		}

		return b.rt.ToValue(map[string]interface{}{
			"status":  resp.StatusCode,
			"body":    string(respBody),
			"headers": headers,
		})
	}
}

func toQueryString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
