package http_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/estatemap/internal/adapters/http"
)

// loadDoc walks up from the package directory to the repository's api/openapi.yaml.
func loadDoc(t *testing.T) *openapi3.T {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, handler.APIDocPath)
		if _, err := os.Stat(candidate); err == nil {
			doc, _, err := handler.LoadAPIDoc(context.Background(), candidate)
			if err != nil {
				t.Fatalf("api document invalid: %v", err)
			}
			return doc
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find %s", handler.APIDocPath)
	return nil
}

var fiberParam = regexp.MustCompile(`:(\w+)`)

// Every REST route the router registers must be documented with the same method.
func TestOpenAPI_CoversRoutes(t *testing.T) {
	doc := loadDoc(t)
	app := setupApp(makeDeps())

	undocumented := map[string]bool{"/metrics": true, "/ws": true, "/docs": true}
	for _, r := range app.GetRoutes(true) {
		if r.Method == fiber.MethodHead || undocumented[r.Path] || strings.HasPrefix(r.Path, "/docs/") {
			continue
		}
		path := fiberParam.ReplaceAllString(strings.TrimSuffix(r.Path, "/"), "{$1}")
		item := doc.Paths.Find(path)
		if item == nil {
			t.Errorf("%s %s is not documented", r.Method, path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("%s is documented without %s", path, r.Method)
		}
	}
}

func TestOpenAPI_Schemas(t *testing.T) {
	doc := loadDoc(t)

	for _, name := range []string{
		"Region", "BoundsResult", "Shape", "FilterState", "SearchPage", "Selection",
		"Summary", "Bucket", "Report", "MarketSnapshot", "APIError", "Pagination",
	} {
		if doc.Components.Schemas[name] == nil {
			t.Errorf("schema %s missing", name)
		}
	}

	if doc.Info.Title != "EstateMap API" || doc.Info.Version != "1.0.0" {
		t.Errorf("unexpected info %s %s", doc.Info.Title, doc.Info.Version)
	}
	if len(doc.Servers) == 0 {
		t.Error("expected at least one server")
	}
}
