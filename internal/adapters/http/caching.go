package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheRule gives the default Cache-Control of GET responses under prefix.
type cacheRule struct {
	prefix string
	value  string
}

// Most specific prefix first.
var cacheRules = []cacheRule{
	{"/v1/health", "no-cache"},
	{"/v1/ready", "no-cache"},
	{"/metrics", "no-cache"},
	// boundaries change on re-import only
	{"/v1/regions", "public, max-age=3600"},
	// selections change on every click
	{"/v1/evaluations/", "no-store"},
	{"/docs", "public, max-age=86400"},
	{"/v1/", "private, max-age=60"},
}

// CachingMiddleware fills in Cache-Control for GET responses whose handler
// did not set one. Error responses are never cached.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		if err != nil || c.Response().StatusCode() >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}

		path := c.Path()
		for _, rule := range cacheRules {
			if strings.HasPrefix(path, rule.prefix) {
				c.Set(fiber.HeaderCacheControl, rule.value)
				break
			}
		}
		return err
	}
}
