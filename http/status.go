package http

const (
	StatusOK       uint16 = 200 // RFC 7231, 6.3.1
	StatusCreated  uint16 = 201 // RFC 7231, 6.3.2
	StatusNotFound uint16 = 404 // RFC 7231, 6.5.4
)

var statusText = map[uint16]string{
	StatusOK:       "OK",
	StatusCreated:  "Created",
	StatusNotFound: "Not Found",
}

// StatusText returns a text for the HTTP status code. It returns the empty
// string if the code is unknown.
func StatusText(code uint16) string {
	return statusText[code]
}
