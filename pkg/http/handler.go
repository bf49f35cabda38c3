package http

import "github.com/labstack/echo/v4"

// Handler is implemented by anything that mounts routes on the server's
// echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
