package http

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Request struct {
	Method   string
	Path     string
	Protocol string

	Host           string
	UserAgent      string
	AcceptEncoding string
	ContentLength  int64

	// Ignored holds header lines that were not recognized, in arrival order.
	Ignored []string

	Body []byte
}

// ReadRequest reads a single request from r: request line, header block and,
// when Content-Length is positive, exactly that many body bytes.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		if errors.Is(err, ErrLineTooLong) {
			err = fmt.Errorf("%w: %w", ErrMalformedRequestLine, err)
		}
		return nil, err
	}

	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}
	if !strings.HasPrefix(parts[1], "/") {
		return nil, fmt.Errorf("%w: path %q", ErrMalformedRequestLine, parts[1])
	}

	req := &Request{
		Method:   parts[0],
		Path:     parts[1],
		Protocol: parts[2],
	}

	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %w", ErrConnectionRead, io.ErrUnexpectedEOF)
			}
			return nil, err
		}
		if line == "" {
			break // end of headers
		}
		if err := req.setHeader(line); err != nil {
			return nil, err
		}
	}

	if req.ContentLength > 0 {
		body, err := io.ReadAll(io.LimitReader(r, req.ContentLength))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnectionRead, err)
		}
		if int64(len(body)) < req.ContentLength {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedBody, len(body), req.ContentLength)
		}
		req.Body = body
	}

	return req, nil
}

func (req *Request) setHeader(line string) error {
	name, value, found := strings.Cut(line, ":")
	if !found {
		req.Ignored = append(req.Ignored, line)
		return nil
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	switch name {
	case HeaderHost:
		req.Host = value
	case HeaderUserAgent:
		req.UserAgent = value
	case HeaderAcceptEncoding:
		req.AcceptEncoding = value
	case HeaderContentLength:
		n, err := atoi([]byte(value))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidContentLength, value)
		}
		req.ContentLength = n
	default:
		req.Ignored = append(req.Ignored, line)
	}

	return nil
}

// AcceptsEncoding reports whether the client listed encoding in its
// Accept-Encoding header.
func (req *Request) AcceptsEncoding(encoding string) bool {
	for _, e := range strings.Split(req.AcceptEncoding, ",") {
		e, _, _ = strings.Cut(e, ";")
		if strings.EqualFold(strings.TrimSpace(e), encoding) {
			return true
		}
	}
	return false
}

// readLine returns the next line with its CRLF or LF terminator removed. A
// line must fit in r's buffer, otherwise ErrLineTooLong is returned. Read
// errors wrap ErrConnectionRead; a clean EOF before any byte wraps io.EOF and
// a partial line wraps io.ErrUnexpectedEOF.
func readLine(r *bufio.Reader) (string, error) {
	raw, err := r.ReadSlice('\n')
	if err != nil {
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			return "", fmt.Errorf("%w: exceeds %d bytes", ErrLineTooLong, r.Size())
		case errors.Is(err, io.EOF) && len(raw) == 0:
			return "", fmt.Errorf("%w: %w", ErrConnectionRead, io.EOF)
		case errors.Is(err, io.EOF):
			err = io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("%w: %w", ErrConnectionRead, err)
	}

	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	return string(raw), nil
}
