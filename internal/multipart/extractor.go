// Package multipart extracts a single uploaded file from a raw
// multipart/form-data body without a general MIME parser.
//
// The scanner walks the buffer through four states: seeking the first
// boundary, reading the part headers, entering the payload, and seeking
// the closing boundary. Only the boundary and header regions are treated
// as text; the payload bytes are passed through untouched. A boundary
// token that happens to appear inside the binary payload ends the payload
// early — an accepted limitation of header-level scanning.
package multipart

import (
	"bytes"
	"strings"
)

// Validation failure reasons, surfaced verbatim in 400 responses.
const (
	ReasonBadContentType    = "bad-content-type"
	ReasonMissingBoundary   = "missing-boundary"
	ReasonBoundaryNotFound  = "boundary-not-found"
	ReasonMalformedHeaders  = "malformed-part-headers"
	ReasonWrongField        = "wrong-field"
	ReasonNoClosingBoundary = "no-closing-boundary"
	ReasonEmptyFile         = "empty-file"
)

// ValidationError reports a malformed or unsupported request body.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid multipart request: " + e.Reason
}

// File is the extracted upload: raw payload bytes plus the filename and
// media type the client declared in the part headers (both optional).
type File struct {
	Data        []byte
	Filename    string
	ContentType string
}

type scanState int

const (
	seekBoundary scanState = iota
	inHeaders
	inBody
	seekClosing
)

// Extract returns the file carried by the part named field. The body is
// scanned once; the returned Data aliases the body buffer rather than
// copying it.
func Extract(body []byte, contentType, field string) (*File, error) {
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return nil, &ValidationError{Reason: ReasonBadContentType}
	}
	boundary := boundaryToken(contentType)
	if boundary == "" {
		return nil, &ValidationError{Reason: ReasonMissingBoundary}
	}

	var (
		f     File
		delim = []byte("--" + boundary)
		pos   int
		start int
		state = seekBoundary
	)
	for {
		switch state {
		case seekBoundary:
			i := bytes.Index(body, delim)
			if i < 0 {
				return nil, &ValidationError{Reason: ReasonBoundaryNotFound}
			}
			pos = skipLine(body, i+len(delim))
			state = inHeaders

		case inHeaders:
			end, skip := headerBlockEnd(body[pos:])
			if end < 0 {
				return nil, &ValidationError{Reason: ReasonMalformedHeaders}
			}
			head := string(body[pos : pos+end])
			if quotedParam(head, "name") != field {
				return nil, &ValidationError{Reason: ReasonWrongField}
			}
			f.Filename = quotedParam(head, "filename")
			f.ContentType = headerValue(head, "Content-Type")
			pos += end + skip
			state = inBody

		case inBody:
			start = pos
			state = seekClosing

		case seekClosing:
			end := closingMarker(body[start:], delim)
			if end < 0 {
				return nil, &ValidationError{Reason: ReasonNoClosingBoundary}
			}
			f.Data = body[start : start+end]
			return &f, nil
		}
	}
}

// boundaryToken pulls the boundary parameter out of the Content-Type
// header value. Returns "" if absent or empty.
func boundaryToken(contentType string) string {
	const key = "boundary="
	i := strings.Index(contentType, key)
	if i < 0 {
		return ""
	}
	tok := contentType[i+len(key):]
	if j := strings.IndexByte(tok, ';'); j >= 0 {
		tok = tok[:j]
	}
	tok = strings.TrimSpace(tok)
	return strings.Trim(tok, `"`)
}

// closingMarker returns the offset of the closing boundary marker
// (--boundary-- preceded by a line break), or -1.
func closingMarker(b, delim []byte) int {
	closing := make([]byte, 0, len(delim)+4)
	closing = append(closing, '\r', '\n')
	closing = append(closing, delim...)
	closing = append(closing, '-', '-')
	if i := bytes.Index(b, closing); i >= 0 {
		return i
	}
	// Tolerate producers that terminate lines with bare LF.
	if i := bytes.Index(b, closing[1:]); i >= 0 {
		return i
	}
	return -1
}

// headerBlockEnd finds the blank line terminating the part headers.
// Returns the header length and the terminator width, or -1.
func headerBlockEnd(b []byte) (int, int) {
	if i := bytes.Index(b, []byte("\r\n\r\n")); i >= 0 {
		return i, 4
	}
	if i := bytes.Index(b, []byte("\n\n")); i >= 0 {
		return i, 2
	}
	return -1, 0
}

// skipLine advances past the line terminator following pos.
func skipLine(b []byte, pos int) int {
	i := bytes.IndexByte(b[pos:], '\n')
	if i < 0 {
		return len(b)
	}
	return pos + i + 1
}

// quotedParam finds a `key="value"` parameter anywhere in the header
// block via literal substring matching. The match must begin a parameter
// so that name= is not found inside filename=.
func quotedParam(head, key string) string {
	marker := key + `="`
	from := 0
	for {
		i := strings.Index(head[from:], marker)
		if i < 0 {
			return ""
		}
		i += from
		if i > 0 && head[i-1] != ' ' && head[i-1] != ';' && head[i-1] != '\t' {
			from = i + len(marker)
			continue
		}
		rest := head[i+len(marker):]
		j := strings.IndexByte(rest, '"')
		if j < 0 {
			return ""
		}
		return rest[:j]
	}
}

// headerValue returns the value of the named header line, or "".
func headerValue(head, name string) string {
	prefix := strings.ToLower(name) + ":"
	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}
