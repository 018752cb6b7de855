package httpclient

// Request describes a single HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, etc).
	Method string

	// Path is the request path, joined to the client's BaseURL unless it is
	// already an absolute URL.
	Path string

	// Query holds query string parameters.
	Query map[string]string

	// Headers holds request-specific headers that override client defaults.
	Headers map[string]string

	// Body is the request body. Supported types: *MultipartBody, io.Reader,
	// []byte, string, or any JSON-marshalable value.
	Body any

	// Auth overrides the client-level authentication for this request.
	Auth *AuthConfig
}

// Response is a fully-read HTTP response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers holds the response headers, flattened to single values.
	Headers map[string]string

	// Body is the complete response body.
	Body []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError reports whether the status code is 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
