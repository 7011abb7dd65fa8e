package multipart

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// buildBody assembles a single-part multipart body from raw strings so
// tests control every byte of the wire format.
func buildBody(boundary, disposition, contentType string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Disposition: " + disposition + "\r\n")
	if contentType != "" {
		b.WriteString("Content-Type: " + contentType + "\r\n")
	}
	b.WriteString("\r\n")
	b.Write(payload)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return b.Bytes()
}

func TestExtract_RoundTrip(t *testing.T) {
	// Binary payload with CRLF pairs, NULs, and a fake boundary-ish
	// string that does not match the real token.
	payload := []byte("ID3\x04\x00\r\n\x00--not-the-boundary\r\nraw\xffaudio\x00bytes")
	body := buildBody("xYzBoundary123", `form-data; name="audioFile"; filename="song.mp3"`, "audio/mpeg", payload)

	f, err := Extract(body, "multipart/form-data; boundary=xYzBoundary123", "audioFile")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(f.Data, payload) {
		t.Errorf("payload not byte-exact:\n got %q\nwant %q", f.Data, payload)
	}
	if f.Filename != "song.mp3" {
		t.Errorf("filename = %q, want %q", f.Filename, "song.mp3")
	}
	if f.ContentType != "audio/mpeg" {
		t.Errorf("content type = %q, want %q", f.ContentType, "audio/mpeg")
	}
}

func TestExtract_OptionalSubHeaders(t *testing.T) {
	body := buildBody("b1", `form-data; name="audioFile"`, "", []byte("abc"))

	f, err := Extract(body, "multipart/form-data; boundary=b1", "audioFile")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.Filename != "" {
		t.Errorf("filename = %q, want empty", f.Filename)
	}
	if f.ContentType != "" {
		t.Errorf("content type = %q, want empty", f.ContentType)
	}
	if string(f.Data) != "abc" {
		t.Errorf("data = %q, want %q", f.Data, "abc")
	}
}

func TestExtract_QuotedBoundary(t *testing.T) {
	body := buildBody("quoted-tok", `form-data; name="audioFile"`, "", []byte("x"))

	f, err := Extract(body, `multipart/form-data; boundary="quoted-tok"`, "audioFile")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(f.Data) != "x" {
		t.Errorf("data = %q, want %q", f.Data, "x")
	}
}

func TestExtract_BareLFBody(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("--lfb\n")
	b.WriteString(`Content-Disposition: form-data; name="audioFile"; filename="a.wav"` + "\n")
	b.WriteString("\n")
	b.WriteString("payload-bytes")
	b.WriteString("\n--lfb--\n")

	f, err := Extract(b.Bytes(), "multipart/form-data; boundary=lfb", "audioFile")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(f.Data) != "payload-bytes" {
		t.Errorf("data = %q, want %q", f.Data, "payload-bytes")
	}
}

func TestExtract_FilenameBeforeName(t *testing.T) {
	// name= must not match inside filename= regardless of parameter order.
	body := buildBody("b2", `form-data; filename="clip.ogg"; name="audioFile"`, "", []byte("z"))

	f, err := Extract(body, "multipart/form-data; boundary=b2", "audioFile")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.Filename != "clip.ogg" {
		t.Errorf("filename = %q, want %q", f.Filename, "clip.ogg")
	}
}

func TestExtract_ValidationFailures(t *testing.T) {
	good := buildBody("tok", `form-data; name="audioFile"`, "", []byte("x"))

	tests := []struct {
		name        string
		body        []byte
		contentType string
		reason      string
	}{
		{
			name:        "not multipart",
			body:        []byte(`{"k":"v"}`),
			contentType: "application/json",
			reason:      ReasonBadContentType,
		},
		{
			name:        "no boundary parameter",
			body:        good,
			contentType: "multipart/form-data",
			reason:      ReasonMissingBoundary,
		},
		{
			name:        "empty boundary parameter",
			body:        good,
			contentType: "multipart/form-data; boundary=",
			reason:      ReasonMissingBoundary,
		},
		{
			name:        "boundary absent from body",
			body:        []byte("no delimiters here at all"),
			contentType: "multipart/form-data; boundary=tok",
			reason:      ReasonBoundaryNotFound,
		},
		{
			name:        "part is not audioFile",
			body:        buildBody("tok", `form-data; name="document"`, "", []byte("x")),
			contentType: "multipart/form-data; boundary=tok",
			reason:      ReasonWrongField,
		},
		{
			name:        "headers never terminate",
			body:        []byte("--tok\r\nContent-Disposition: form-data"),
			contentType: "multipart/form-data; boundary=tok",
			reason:      ReasonMalformedHeaders,
		},
		{
			name:        "closing boundary missing",
			body:        []byte("--tok\r\nContent-Disposition: form-data; name=\"audioFile\"\r\n\r\ntruncated payload"),
			contentType: "multipart/form-data; boundary=tok",
			reason:      ReasonNoClosingBoundary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.body, tt.contentType, "audioFile")
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", ve.Reason, tt.reason)
			}
			if !strings.Contains(ve.Error(), tt.reason) {
				t.Errorf("Error() = %q, should contain reason", ve.Error())
			}
		})
	}
}

func TestBoundaryToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"multipart/form-data; boundary=abc123", "abc123"},
		{`multipart/form-data; boundary="abc 123"`, "abc 123"},
		{"multipart/form-data; boundary=abc; charset=utf-8", "abc"},
		{"multipart/form-data", ""},
		{"multipart/form-data; boundary=", ""},
	}
	for _, tt := range tests {
		if got := boundaryToken(tt.in); got != tt.want {
			t.Errorf("boundaryToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
