// Package searchapi is the client of the external property search API.
package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// Config holds the connection settings of the search API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements ports.SearchClient over fasthttp.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "estatemap",
			MaxConnsPerHost:     64,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
	}
}

type rangeParam struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

type areaParam struct {
	rangeParam
	Type domain.AreaType `json:"type"`
}

type searchRequest struct {
	BusinessModel   domain.BusinessModel     `json:"businessModel,omitempty"`
	UnitTypes       []string                 `json:"unitTypes,omitempty"`
	Price           *rangeParam              `json:"price,omitempty"`
	Area            *areaParam               `json:"area,omitempty"`
	Bedrooms        []int                    `json:"bedrooms,omitempty"`
	CityIDs         []string                 `json:"cityIds,omitempty"`
	NeighborhoodIDs []string                 `json:"neighborhoodIds,omitempty"`
	Geometries      []domain.GeoJSONGeometry `json:"geometries,omitempty"`
	Sort            string                   `json:"sort,omitempty"`
	Page            int                      `json:"page"`
	Size            int                      `json:"size"`
}

type searchResponse struct {
	Listings   []domain.PropertyRecord `json:"listings"`
	TotalCount int                     `json:"totalCount"`
	Page       int                     `json:"page"`
	Size       int                     `json:"size"`
}

// buildRequest converts the filter into the API body. Drawn shapes are sent
// as GeoJSON geometries; empty shapes are skipped.
func buildRequest(f domain.FilterState) searchRequest {
	req := searchRequest{
		BusinessModel:   f.BusinessModel,
		UnitTypes:       f.UnitTypes,
		Bedrooms:        f.Bedrooms,
		CityIDs:         f.CityIDs,
		NeighborhoodIDs: f.NeighborhoodIDs,
		Sort:            f.Sort,
		Page:            f.Page,
		Size:            f.PageSize,
	}
	if f.PriceMin > 0 || f.PriceMax > 0 {
		req.Price = &rangeParam{Min: f.PriceMin, Max: f.PriceMax}
	}
	if f.AreaMin > 0 || f.AreaMax > 0 {
		req.Area = &areaParam{rangeParam: rangeParam{Min: f.AreaMin, Max: f.AreaMax}, Type: f.AreaType}
	}
	for _, s := range f.Geometries {
		if s.Geometry == nil {
			continue
		}
		if g := domain.ToGeoJSON(s.Geometry); g.Type != "" {
			req.Geometries = append(req.Geometries, g)
		}
	}
	return req
}

// Search fetches one page of listings.
func (c *Client) Search(ctx context.Context, filter domain.FilterState) (_ *domain.SearchPage, err error) {
	ctx, span := otel.Tracer("estatemap/searchapi").Start(ctx, "searchapi.Search")
	span.SetAttributes(
		attribute.Int("search.page", filter.Page),
		attribute.Int("search.page_size", filter.PageSize),
		attribute.Int("search.geometries", len(filter.Geometries)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(buildRequest(filter))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/listings/search")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.SetBodyRaw(body)

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		req.Header.Set(k, v)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err = c.http.DoDeadline(req, resp, deadline)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, code, truncate(resp.Body(), 200))
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	var out searchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	page := &domain.SearchPage{
		Records: out.Listings,
		Total:   out.TotalCount,
		Page:    out.Page,
		Size:    out.Size,
	}
	if page.Records == nil {
		page.Records = []domain.PropertyRecord{}
	}
	if page.Page == 0 {
		page.Page = filter.Page
	}
	if page.Size == 0 {
		page.Size = filter.PageSize
	}
	return page, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
