package http

const (
	DefaultReadBufferSize  = 4096
	DefaultWriteBufferSize = 4096
)

const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// Recognized request header names. Matching is case-sensitive.
const (
	HeaderHost           = "Host"
	HeaderUserAgent      = "User-Agent"
	HeaderAcceptEncoding = "Accept-Encoding"
	HeaderContentLength  = "Content-Length"
)

// EncodingGzip is the only content coding the server looks for. It is
// recognized, never applied.
const EncodingGzip = "gzip"

const (
	ContentTypeText        = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
)

var (
	protocolHttp11      = []byte("HTTP/1.1 ")
	contentTypePrefix   = []byte("Content-Type: ")
	contentLengthPrefix = []byte("Content-Length: ")
	crlf                = []byte("\r\n")
)
