package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// MultipartBody builds a multipart/form-data request body with file uploads
// and plain form fields.
type MultipartBody struct {
	// Files maps form field names to file attachments.
	Files map[string]FileField

	// Fields maps form field names to plain values.
	Fields map[string]string
}

// FileField is a single file attachment in a multipart body.
type FileField struct {
	// Filename is the filename reported in the part's Content-Disposition.
	Filename string

	// ContentType sets the part's Content-Type. Empty means
	// application/octet-stream.
	ContentType string

	// Reader provides the file content.
	Reader io.Reader
}

// NewMultipartBody creates an empty multipart body.
func NewMultipartBody() *MultipartBody {
	return &MultipartBody{
		Files:  make(map[string]FileField),
		Fields: make(map[string]string),
	}
}

// AddFile attaches a file under the given form field name.
func (m *MultipartBody) AddFile(field, filename, contentType string, r io.Reader) *MultipartBody {
	m.Files[field] = FileField{Filename: filename, ContentType: contentType, Reader: r}
	return m
}

// AddField adds a plain form field.
func (m *MultipartBody) AddField(name, value string) *MultipartBody {
	m.Fields[name] = value
	return m
}

// encode renders the multipart body and returns the reader plus the
// Content-Type header value carrying the boundary.
func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, file := range m.Files {
		part, err := createFilePart(w, field, file)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", field, err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, "", fmt.Errorf("write part %q: %w", field, err)
		}
	}

	for name, value := range m.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %q: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// createFilePart creates a file part, honoring a custom content type when one
// is set. multipart.Writer.CreateFormFile hardcodes application/octet-stream.
func createFilePart(w *multipart.Writer, field string, file FileField) (io.Writer, error) {
	if file.ContentType == "" {
		return w.CreateFormFile(field, file.Filename)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(file.Filename)))
	h.Set("Content-Type", file.ContentType)
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
