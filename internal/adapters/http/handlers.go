package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/estatemap/internal/core/domain"
	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// ListRegionsHandler lists neighborhoods or cities without their boundaries.
func ListRegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind := domain.RegionKind(c.Query("kind", string(domain.RegionCity)))
		if kind != domain.RegionCity && kind != domain.RegionNeighborhood {
			return errBadRequest(c, "kind must be city or neighborhood")
		}

		regions, err := deps.Viewport.ListRegions(c.UserContext(), kind, c.Query("city_id"))
		if err != nil {
			return errFromService(c, err, "regions")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		page, pg := paginate(regions, offset, limit)
		SetLinkHeaders(c, pg)
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

type regionViewportRequest struct {
	CityIDs         []string `json:"city_ids"`
	NeighborhoodIDs []string `json:"neighborhood_ids"`
}

// RegionViewportHandler fits the map to the selected regions.
func RegionViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req regionViewportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.CityIDs)+len(req.NeighborhoodIDs) > 1000 {
			return errBadRequest(c, "too many regions (max 1000)")
		}

		res, err := deps.Viewport.RegionViewport(c.UserContext(), req.CityIDs, req.NeighborhoodIDs)
		if err != nil {
			return errFromService(c, err, "regions")
		}
		return c.JSON(res)
	}
}

// DrawingViewportHandler fits the map to one drawn shape.
func DrawingViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shape, err := parseShape(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		res := deps.Viewport.DrawingViewport(shape.Geometry)
		if res == nil {
			return errBadRequest(c, "geometry has no extent")
		}
		return c.JSON(res)
	}
}

// GeoJSONHandler converts a drawn shape into the search API geometry.
func GeoJSONHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		shape, err := parseShape(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(domain.ToGeoJSON(shape.Geometry))
	}
}

type applyFiltersRequest struct {
	State *domain.FilterState `json:"state"`
	Patch domain.FilterPatch  `json:"patch"`
}

// ApplyFiltersHandler merges a partial update into a filter state. A missing
// state starts from the defaults.
func ApplyFiltersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req applyFiltersRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		state := domain.DefaultFilterState()
		if req.State != nil {
			state = *req.State
		}
		return c.JSON(domain.ApplyPartialUpdate(state, req.Patch))
	}
}

// SearchHandler proxies one page of the external search. The optional
// session_id query parameter ties the page to an evaluation session.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		page, err := deps.Search.Search(c.UserContext(), c.Query("session_id"), filter)
		if err != nil {
			return errFromService(c, err, "listings")
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(page)
	}
}

// MarketHandler returns the dashboard snapshot for a filter.
func MarketHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		snap, err := deps.Analytics.Market(c.UserContext(), filter)
		if err != nil {
			return errFromService(c, err, "listings")
		}
		return c.JSON(snap)
	}
}

// CreateEvaluationHandler starts an evaluation session.
func CreateEvaluationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := deps.Evaluations.Create(c.UserContext())
		if err != nil {
			return errFromService(c, err, "session")
		}
		c.Location("/v1/evaluations/" + sel.SessionID)
		return c.Status(fiber.StatusCreated).JSON(sel)
	}
}

// GetEvaluationHandler returns the selection of a session.
func GetEvaluationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := deps.Evaluations.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err, "session")
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(sel)
	}
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type selectionFunc func(ctx context.Context, sessionID string, ids []string) (*domain.Selection, error)

func selectionHandler(apply selectionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req idsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.IDs) == 0 {
			return errBadRequest(c, "ids is required")
		}
		if len(req.IDs) > 500 {
			return errBadRequest(c, "too many ids (max 500)")
		}

		sel, err := apply(c.UserContext(), c.Params("id"), req.IDs)
		if err != nil {
			return errFromService(c, err, "session")
		}
		return c.JSON(sel)
	}
}

// ToggleHandler flips the selection of each listing id.
func ToggleHandler(deps *Dependencies) fiber.Handler {
	return selectionHandler(deps.Evaluations.Toggle)
}

// SelectHandler adds listing ids to a session.
func SelectHandler(deps *Dependencies) fiber.Handler {
	return selectionHandler(deps.Evaluations.Select)
}

// DeselectHandler removes listing ids from a session.
func DeselectHandler(deps *Dependencies) fiber.Handler {
	return selectionHandler(deps.Evaluations.Deselect)
}

// SelectWithinHandler selects every cached listing inside a drawn shape.
func SelectWithinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shape, err := parseShape(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		sel, err := deps.Evaluations.SelectWithin(c.UserContext(), c.Params("id"), shape.Geometry)
		if err != nil {
			return errFromService(c, err, "session")
		}
		return c.JSON(sel)
	}
}

// ClearSelectionHandler empties a session.
func ClearSelectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := deps.Evaluations.Clear(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err, "session")
		}
		return c.JSON(sel)
	}
}

// SummaryHandler returns the aggregates of a session's selection.
func SummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		areaType, ok := domain.ParseAreaType(c.Query("area_type"))
		if !ok {
			return errBadRequest(c, "area_type must be TOTAL, USABLE or BUILT")
		}

		sum, err := deps.Evaluations.Summary(c.UserContext(), c.Params("id"), areaType)
		if err != nil {
			return errFromService(c, err, "session")
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(sum)
	}
}

// DistributionHandler returns a bucketed distribution of the selection.
func DistributionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		areaType, ok := domain.ParseAreaType(c.Query("area_type"))
		if !ok {
			return errBadRequest(c, "area_type must be TOTAL, USABLE or BUILT")
		}
		field := c.Query("field", "price")
		if field != "price" && field != "area" && field != "price_per_area" {
			return errBadRequest(c, "field must be price, area or price_per_area")
		}
		buckets := c.QueryInt("buckets", 5)
		if buckets <= 0 || buckets > 50 {
			return errBadRequest(c, "buckets must be between 1 and 50")
		}

		dist, err := deps.Evaluations.Distribution(c.UserContext(), c.Params("id"), field, areaType, buckets)
		if err != nil {
			return errFromService(c, err, "session")
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(dist)
	}
}

// ReportHandler returns the report data of a session synchronously.
func ReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		areaType, ok := domain.ParseAreaType(c.Query("area_type"))
		if !ok {
			return errBadRequest(c, "area_type must be TOTAL, USABLE or BUILT")
		}

		report, err := deps.Reports.Build(c.UserContext(), c.Params("id"), areaType)
		if err != nil {
			return errFromService(c, err, "session")
		}
		metrics.ReportsGenerated.WithLabelValues("sync").Inc()
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(report)
	}
}

type reportRequest struct {
	AreaType string `json:"area_type"`
}

// RequestReportHandler queues an asynchronous report. Completion is pushed
// over the WebSocket.
func RequestReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req reportRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}
		areaType, ok := domain.ParseAreaType(req.AreaType)
		if !ok {
			return errBadRequest(c, "area_type must be TOTAL, USABLE or BUILT")
		}

		queued, err := deps.Reports.Request(c.UserContext(), c.Params("id"), areaType)
		if err != nil {
			return errFromService(c, err, "session")
		}
		return c.Status(fiber.StatusAccepted).JSON(queued)
	}
}

func parseShape(c *fiber.Ctx) (domain.Shape, error) {
	var shape domain.Shape
	if err := shape.UnmarshalJSON(c.Body()); err != nil {
		return domain.Shape{}, err
	}
	if shape.Geometry == nil {
		return domain.Shape{}, domain.ErrInvalidShape
	}
	return shape, nil
}

func parseFilter(c *fiber.Ctx) (domain.FilterState, error) {
	filter := domain.DefaultFilterState()
	if len(c.Body()) == 0 {
		return filter, nil
	}
	if err := c.BodyParser(&filter); err != nil {
		return domain.FilterState{}, err
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	return filter, nil
}
