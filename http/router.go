package http

type Handler func(ctx *RequestCtx) error

// Router dispatches to the first registered route that matches. Registration
// order is precedence order.
type Router struct {
	Routes     []Route
	Middleware []Middleware
}

func NewRouter() Router {
	return Router{
		Routes: make([]Route, 0),
	}
}

func (router *Router) GET(path string, handler Handler, middleware ...Middleware) {
	router.Any([]string{MethodGet}, path, handler, middleware...)
}

func (router *Router) POST(path string, handler Handler, middleware ...Middleware) {
	router.Any([]string{MethodPost}, path, handler, middleware...)
}

func (router *Router) Any(methods []string, path string, handler Handler, middleware ...Middleware) {
	for _, middleware := range middleware {
		handler = middleware(handler)
	}

	router.Routes = append(router.Routes, Route{
		Methods: methods,
		Path:    path,
		Handler: handler,
	})
}

// Use registers middleware that wraps the whole dispatch, including the
// not-found fallback.
func (router *Router) Use(middleware ...Middleware) {
	router.Middleware = append(router.Middleware, middleware...)
}

func (router *Router) Group(path string, groupFunc func(group *Router), middlewareList ...Middleware) {
	group := NewRouter()

	groupFunc(&group)

	for _, route := range group.Routes {
		route.Path = path + route.Path
		for _, middleware := range middlewareList {
			route.Handler = middleware(route.Handler)
		}

		router.Routes = append(router.Routes, route)
	}
}

func (router *Router) Handler() Handler {
	routes := append([]Route(nil), router.Routes...)

	var handler Handler = func(ctx *RequestCtx) error {
		for i := range routes {
			rest, ok := routes[i].match(ctx.Request.Method, ctx.Request.Path)
			if !ok {
				continue
			}

			ctx.Route = routes[i].Path
			ctx.Rest = rest
			return routes[i].Handler(ctx)
		}

		return NotFoundHandler(ctx)
	}

	for _, middleware := range router.Middleware {
		handler = middleware(handler)
	}

	return handler
}
