package http

import "strings"

// Route matches a path exactly, or by prefix when Path ends in '*'.
// A nil Methods list matches every method.
type Route struct {
	Methods []string
	Path    string
	Handler Handler
}

func (route *Route) match(method, path string) (rest string, ok bool) {
	if route.Methods != nil {
		allowed := false
		for _, m := range route.Methods {
			if m == method {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", false
		}
	}

	if prefix, isPrefix := strings.CutSuffix(route.Path, "*"); isPrefix {
		return strings.CutPrefix(path, prefix)
	}

	return "", path == route.Path
}

var NotFoundHandler Handler = func(ctx *RequestCtx) error {
	ctx.Response.WithStatus(StatusNotFound)
	return nil
}
