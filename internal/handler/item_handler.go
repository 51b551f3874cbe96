package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/furnimarket-backend/internal/middleware"
	"github.com/shinyyama/furnimarket-backend/internal/model"
	"github.com/shinyyama/furnimarket-backend/internal/service"
)

const noDescription = "Sem descrição"

type ItemHandler struct {
	items service.ItemService
	views service.ViewService
}

func NewItemHandler(items service.ItemService, views service.ViewService) *ItemHandler {
	return &ItemHandler{items: items, views: views}
}

type ItemResponse struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	WhatsApp    string `json:"whatsapp"`
	OwnerID     string `json:"ownerId"`
	IsFavorite  bool   `json:"isFavorite"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Total int            `json:"total"`
}

type CreateItemRequest struct {
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	WhatsApp    string `json:"whatsapp"`
}

// UpdateItemRequest fields left out of the body are not touched.
type UpdateItemRequest struct {
	Title       *string `json:"title"`
	Price       *int64  `json:"price"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	WhatsApp    *string `json:"whatsapp"`
}

type describeRequest struct {
	Image string `json:"image"`
	Hint  string `json:"hint"`
}

func (h *ItemHandler) Create(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	item, err := h.items.Create(c.Request().Context(), middleware.UserID(c), model.NewItem{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		WhatsApp:    req.WhatsApp,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toItemResponse(model.ItemView{Item: *item}))
}

func (h *ItemHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	ctx := c.Request().Context()
	uid := middleware.UserID(c)
	patch := model.ItemPatch{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		WhatsApp:    req.WhatsApp,
	}
	if err := h.items.Update(ctx, uid, id, patch); err != nil {
		return writeError(c, err)
	}
	view, err := h.views.BuildDetail(ctx, id, uid)
	if err != nil {
		return writeError(c, err)
	}
	if view == nil {
		return writeError(c, service.ErrNotFound)
	}
	return c.JSON(http.StatusOK, toItemResponse(*view))
}

func (h *ItemHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	if err := h.items.Delete(c.Request().Context(), middleware.UserID(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ItemHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	view, err := h.views.BuildDetail(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	if view == nil {
		return writeError(c, service.ErrNotFound)
	}
	return c.JSON(http.StatusOK, toItemResponse(*view))
}

func (h *ItemHandler) List(c echo.Context) error {
	views, err := h.views.BuildFeed(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toListResponse(views))
}

func (h *ItemHandler) ListMine(c echo.Context) error {
	items, err := h.views.BuildMyItems(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	resp := ItemListResponse{Items: make([]ItemResponse, 0, len(items)), Total: len(items)}
	for i := range items {
		resp.Items = append(resp.Items, toItemResponse(model.ItemView{Item: items[i]}))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ItemHandler) ListFavorites(c echo.Context) error {
	views, err := h.views.BuildFavoritesView(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toListResponse(views))
}

func (h *ItemHandler) ToggleFavorite(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	favorited, err := h.items.ToggleFavorite(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"isFavorite": favorited})
}

// Describe drafts a listing description from an image. The result is only
// returned to the caller.
func (h *ItemHandler) Describe(c echo.Context) error {
	var req describeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	text, err := h.items.Describe(c.Request().Context(), req.Image, req.Hint)
	if err != nil {
		if isMapped(err) {
			return writeError(c, err)
		}
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upstream_error", "failed to generate description"))
	}
	return c.JSON(http.StatusOK, map[string]string{"description": text})
}

func toItemResponse(v model.ItemView) ItemResponse {
	desc := noDescription
	if v.Description != nil && *v.Description != "" {
		desc = *v.Description
	}
	return ItemResponse{
		ID:          v.ID,
		Title:       v.Title,
		Price:       v.Price,
		Description: desc,
		Image:       v.Image,
		WhatsApp:    v.WhatsApp,
		OwnerID:     v.OwnerID,
		IsFavorite:  v.IsFavorite,
	}
}

func toListResponse(views []model.ItemView) ItemListResponse {
	resp := ItemListResponse{Items: make([]ItemResponse, 0, len(views)), Total: len(views)}
	for _, v := range views {
		resp.Items = append(resp.Items, toItemResponse(v))
	}
	return resp
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil
}
