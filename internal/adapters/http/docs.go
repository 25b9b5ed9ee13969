package http

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// APIDocPath is where the OpenAPI document lives relative to the working
// directory of the api binary.
const APIDocPath = "api/openapi.yaml"

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>EstateMap API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

// LoadAPIDoc parses and validates the OpenAPI document at path.
func LoadAPIDoc(ctx context.Context, path string) (*openapi3.T, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return doc, raw, nil
}

// SetupDocs serves Swagger UI at /docs and the document as YAML and JSON.
// The document is loaded once; when it is missing or invalid the routes
// answer 404 and the api keeps running.
func SetupDocs(app *fiber.App, path string) {
	doc, raw, err := LoadAPIDoc(context.Background(), path)
	var asJSON []byte
	if err == nil {
		asJSON, err = doc.MarshalJSON()
	}
	if err != nil {
		slog.Warn("api docs disabled", "error", err)
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerUIHTML)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if raw == nil {
			return errNotFound(c, "api document not available")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(raw)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		if asJSON == nil {
			return errNotFound(c, "api document not available")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(asJSON)
	})
}
