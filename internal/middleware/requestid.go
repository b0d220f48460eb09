package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

// RequestIDKey is the locals key under which the request identifier is stored.
const RequestIDKey = "request_id"

// RequestID tags every tool invocation with a sortable ULID so one
// invocation can be followed through the logs and the echoed header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := ulid.Make().String()
		c.Locals(RequestIDKey, id)
		c.Set("X-Request-ID", id)
		return c.Next()
	}
}
