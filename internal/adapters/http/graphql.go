package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

func stringList(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func areaTypeArg(p graphql.ResolveParams) (domain.AreaType, error) {
	s, _ := p.Args["areaType"].(string)
	t, ok := domain.ParseAreaType(s)
	if !ok {
		return "", fmt.Errorf("areaType must be TOTAL, USABLE or BUILT")
	}
	return t, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Viewport",
		Description: "Map center and zoom; both null when nothing could be fitted",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Int},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"kind":    &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"city_id": &graphql.Field{Type: graphql.String},
		},
	})

	rangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Range",
		Fields: graphql.Fields{
			"min": &graphql.Field{Type: graphql.Float},
			"max": &graphql.Field{Type: graphql.Float},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Summary",
		Fields: graphql.Fields{
			"count":               &graphql.Field{Type: graphql.Int},
			"averagePrice":        &graphql.Field{Type: graphql.Float},
			"averagePricePerArea": &graphql.Field{Type: graphql.Float},
			"averageUsableArea":   &graphql.Field{Type: graphql.Float},
			"averageTotalArea":    &graphql.Field{Type: graphql.Float},
			"priceRange":          &graphql.Field{Type: rangeType},
			"areaRange":           &graphql.Field{Type: rangeType},
		},
	})

	bucketType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bucket",
		Fields: graphql.Fields{
			"min":   &graphql.Field{Type: graphql.Float},
			"max":   &graphql.Field{Type: graphql.Float},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	evaluationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Evaluation",
		Fields: graphql.Fields{
			"session_id": &graphql.Field{Type: graphql.String},
			"ids":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"version":    &graphql.Field{Type: graphql.Int},
			"summary": &graphql.Field{
				Type:        summaryType,
				Description: "Aggregates of the selected listings",
				Args: graphql.FieldConfigArgument{
					"areaType": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "TOTAL"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sel, ok := p.Source.(*domain.Selection)
					if !ok {
						return nil, nil
					}
					areaType, err := areaTypeArg(p)
					if err != nil {
						return nil, err
					}
					return deps.Evaluations.Summary(p.Context, sel.SessionID, areaType)
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "List cities or neighborhoods",
				Args: graphql.FieldConfigArgument{
					"kind":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "city"},
					"cityId": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					kind := domain.RegionKind(p.Args["kind"].(string))
					return deps.Viewport.ListRegions(p.Context, kind, p.Args["cityId"].(string))
				},
			},
			"regionViewport": &graphql.Field{
				Type:        viewportType,
				Description: "Fit the map to selected cities and neighborhoods",
				Args: graphql.FieldConfigArgument{
					"cityIds":         &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"neighborhoodIds": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Viewport.RegionViewport(p.Context,
						stringList(p.Args["cityIds"]), stringList(p.Args["neighborhoodIds"]))
				},
			},
			"evaluation": &graphql.Field{
				Type:        evaluationType,
				Description: "Get an evaluation session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Evaluations.Get(p.Context, p.Args["id"].(string))
				},
			},
			"distribution": &graphql.Field{
				Type:        graphql.NewList(bucketType),
				Description: "Bucketed distribution of a session's selection",
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"field":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "price"},
					"areaType": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "TOTAL"},
					"buckets":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					areaType, err := areaTypeArg(p)
					if err != nil {
						return nil, err
					}
					return deps.Evaluations.Distribution(p.Context,
						p.Args["id"].(string), p.Args["field"].(string), areaType, p.Args["buckets"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
