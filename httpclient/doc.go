// Package httpclient provides a configurable HTTP client for calling
// external providers.
//
// It supports phase-scoped timeouts (connect, send, read, idle), multipart
// file uploads, bearer/API-key/basic authentication, and typed error
// classification that distinguishes timeouts from connection failures and
// maps status codes to retryable/non-retryable errors.
//
// # Usage
//
//	client, err := httpclient.New(httpclient.Config{
//		BaseURL: "https://api.example.com",
//		Auth:    httpclient.APIKeyAuthHeader("api-subscription-key", key),
//	})
//	resp, err := client.Do(ctx, httpclient.Request{
//		Method: http.MethodPost,
//		Path:   "/speech-to-text",
//		Body:   body,
//	})
package httpclient
