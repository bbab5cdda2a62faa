package http

import (
	"errors"
	"fmt"

	"github.com/wtlin1228/codecrafters-http-server-go/filesystem"
)

// NewDispatcher returns the server's router. Routes are tried in this order:
// "/", "/echo/", "/user-agent", "/files/", then the not-found fallback.
func NewDispatcher(files filesystem.Filesystem) *Router {
	router := NewRouter()
	router.Use(TraceMiddleware())

	router.Any(nil, "/", func(ctx *RequestCtx) error {
		ctx.Response.WithStatus(StatusOK)
		return nil
	})

	router.Any(nil, "/echo/*", func(ctx *RequestCtx) error {
		ctx.Response.WithStatus(StatusOK).WithText(ctx.Rest)
		return nil
	})

	router.Any(nil, "/user-agent*", func(ctx *RequestCtx) error {
		ctx.Response.WithStatus(StatusOK).WithText(ctx.Request.UserAgent)
		return nil
	})

	router.Group("/files", func(group *Router) {
		group.GET("/*", readFileHandler(files))
		group.POST("/*", writeFileHandler(files))
	}, RequireDirectoryMiddleware())

	return &router
}

func readFileHandler(files filesystem.Filesystem) Handler {
	return func(ctx *RequestCtx) error {
		path, err := filesystem.Resolve(ctx.Directory, ctx.Rest)
		if err != nil {
			ctx.Logger.Warn("rejected file name", "conn.id", ctx.ConnID, "name", ctx.Rest)
			ctx.Response.WithStatus(StatusNotFound)
			return nil
		}

		content, err := files.ReadFile(path)
		if err != nil {
			if !errors.Is(err, filesystem.ErrFileNotFound) {
				ctx.Logger.Warn("file unreadable", "conn.id", ctx.ConnID, "path", path, "error", err)
			}
			ctx.Response.WithStatus(StatusNotFound)
			return nil
		}

		ctx.Response.WithStatus(StatusOK).WithBytes(content)
		return nil
	}
}

func writeFileHandler(files filesystem.Filesystem) Handler {
	return func(ctx *RequestCtx) error {
		path, err := filesystem.Resolve(ctx.Directory, ctx.Rest)
		if err != nil {
			ctx.Logger.Warn("rejected file name", "conn.id", ctx.ConnID, "name", ctx.Rest)
			ctx.Response.WithStatus(StatusNotFound)
			return nil
		}

		if err := files.WriteFile(path, ctx.Request.Body); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		ctx.Response.WithStatus(StatusCreated)
		return nil
	}
}
