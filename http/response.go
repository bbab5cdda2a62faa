package http

import (
	"bufio"
	"fmt"
)

// Response is built by a handler and written once. Content headers are only
// emitted when ContentType is set, in which case Content-Length is always
// len(Body).
type Response struct {
	Status      uint16
	ContentType string
	Body        []byte
}

func (res *Response) Reset() {
	res.Status = StatusOK
	res.ContentType = ""
	res.Body = nil
}

func (res *Response) WithStatus(status uint16) *Response {
	res.Status = status
	return res
}

func (res *Response) WithText(payload string) *Response {
	res.ContentType = ContentTypeText
	res.Body = []byte(payload)
	return res
}

func (res *Response) WithBytes(payload []byte) *Response {
	res.ContentType = ContentTypeOctetStream
	res.Body = payload
	return res
}

// Write serializes the response to bw and flushes it.
func (res *Response) Write(bw *bufio.Writer) error {
	head := make([]byte, 0, 128)
	head = append(head, protocolHttp11...)
	head = appendInt(head, int(res.Status))
	head = append(head, ' ')
	head = append(head, StatusText(res.Status)...)
	head = append(head, crlf...)

	if res.ContentType != "" {
		head = append(head, contentTypePrefix...)
		head = append(head, res.ContentType...)
		head = append(head, crlf...)
		head = append(head, contentLengthPrefix...)
		head = appendInt(head, len(res.Body))
		head = append(head, crlf...)
	}
	head = append(head, crlf...)

	if _, err := bw.Write(head); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionWrite, err)
	}
	if res.ContentType != "" {
		if _, err := bw.Write(res.Body); err != nil {
			return fmt.Errorf("%w: %w", ErrConnectionWrite, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionWrite, err)
	}

	return nil
}
