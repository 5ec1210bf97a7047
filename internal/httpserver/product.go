package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/art_shop/internal/search"
	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/transport"
	"github.com/Skotchmaster/art_shop/internal/util"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

const maxBatchIDs = 200

type ProductHTTP struct {
	Svc      *service.CatalogService
	Search   search.Searcher
	Currency string
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	items, err := h.Svc.ListProducts(ctx, c.QueryParam("status"))
	if err != nil {
		return respondError(l, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductList(items, h.Currency))
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return respondError(l, "get_product_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductResponse(*p, h.Currency))
}

func (h *ProductHTTP) GetBatch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_batch")

	var req transport.BatchRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("get_batch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.IDs) > maxBatchIDs {
		l.Warn("get_batch_error", "status", 400, "reason", "too many ids", "count", len(req.IDs))
		return echo.NewHTTPError(http.StatusBadRequest, "too many ids")
	}

	items, err := h.Svc.GetProducts(ctx, req.IDs)
	if err != nil {
		return respondError(l, "get_batch_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewProductList(items, h.Currency))
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	if h.Search == nil {
		l.Warn("search_error", "status", 503, "reason", "search is not configured")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		l.Warn("search_error", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, ids, err := h.Search.Search(ctx, q, offset, limit)
	if err != nil {
		if errors.Is(err, search.ErrDisabled) {
			l.Warn("search_error", "status", 503, "reason", "search is not configured")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
		}
		l.Error("search_error", "status", 502, "reason", "search backend failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search backend failed")
	}

	items, err := h.Svc.GetProducts(ctx, ids)
	if err != nil {
		return respondError(l, "search_error", err)
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, transport.SearchResponse{
		Data: transport.NewProductList(items, h.Currency),
		Meta: util.NewMeta(page, offset, limit, total),
	})
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	admin, ok := adminFrom(c)
	if !ok {
		return respondError(l, "product_create_error", service.ErrUnauthorized)
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.CreateProduct(ctx, admin, req.Input())
	if err != nil {
		return respondError(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(*p, h.Currency))
}

func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	admin, ok := adminFrom(c)
	if !ok {
		return respondError(l, "product_update_error", service.ErrUnauthorized)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.UpdateProduct(ctx, admin, id, req.Input())
	if err != nil {
		return respondError(l, "product_update_error", err)
	}

	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(*p, h.Currency))
}

func (h *ProductHTTP) MarkSold(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.mark_sold")

	admin, ok := adminFrom(c)
	if !ok {
		return respondError(l, "mark_sold_error", service.ErrUnauthorized)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("mark_sold_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.MarkSold(ctx, admin, id); err != nil {
		return respondError(l, "mark_sold_error", err)
	}

	l.Info("mark_sold_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) UploadURL(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.upload_url")

	admin, ok := adminFrom(c)
	if !ok {
		return respondError(l, "upload_url_error", service.ErrUnauthorized)
	}

	var req transport.UploadRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("upload_url_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	up, err := h.Svc.GenerateUploadURL(ctx, admin, req.ContentType)
	if err != nil {
		return respondError(l, "upload_url_error", err)
	}

	return c.JSON(http.StatusOK, up)
}
