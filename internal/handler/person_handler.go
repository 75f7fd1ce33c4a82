package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/linkmap/internal/model"
	"github.com/hitoshi/linkmap/internal/person"
)

// PersonServiceInterface は人員ハンドラーが必要とするサービスインターフェース。
type PersonServiceInterface interface {
	List(ctx context.Context, params person.ListParams) (*model.PersonPage, error)
	ListByProvince(ctx context.Context, province string) ([]*model.Person, error)
	Get(ctx context.Context, id string) (*model.Person, error)
	Create(ctx context.Context, input person.Input) (*model.Person, error)
	Update(ctx context.Context, id string, input person.Input) (*model.Person, error)
	Delete(ctx context.Context, id string) error
	BatchDelete(ctx context.Context, ids []string) (int64, error)
	StatsByProvince(ctx context.Context) ([]model.ProvinceStat, error)
}

// PersonHandler は人員データ管理のHTTPハンドラー。
type PersonHandler struct {
	service PersonServiceInterface
}

// NewPersonHandler はPersonHandlerを生成する。
func NewPersonHandler(service PersonServiceInterface) *PersonHandler {
	return &PersonHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// locationPayload はGeoJSON Point形式の位置情報。coordinatesは[経度, 緯度]。
type locationPayload struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// personRequest は人員データ作成・更新リクエストのボディ。
type personRequest struct {
	Name     string           `json:"name"`
	Province string           `json:"province"`
	City     string           `json:"city"`
	Wechat   string           `json:"wechat"`
	Phone    string           `json:"phone"`
	Location *locationPayload `json:"location"`
}

// personResponse は人員データのレスポンス。
type personResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Province  string           `json:"province"`
	City      string           `json:"city"`
	Wechat    string           `json:"wechat"`
	Phone     string           `json:"phone"`
	Location  *locationPayload `json:"location,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// paginationResponse はページネーション情報のレスポンス。
type paginationResponse struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// personListResponse はページネーション付き人員一覧のレスポンス。
type personListResponse struct {
	Persons    []personResponse   `json:"persons"`
	Pagination paginationResponse `json:"pagination"`
}

// provinceStatResponse は省別集計のレスポンス。
type provinceStatResponse struct {
	Province string `json:"province"`
	Count    int    `json:"count"`
}

// batchDeleteRequest は一括削除リクエストのボディ。
type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// batchDeleteResponse は一括削除のレスポンス。
type batchDeleteResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// toPersonResponse はドメインモデルをレスポンス型に変換する。
func toPersonResponse(p *model.Person) personResponse {
	resp := personResponse{
		ID:        p.ID,
		Name:      p.Name,
		Province:  p.Province,
		City:      p.City,
		Wechat:    p.Wechat,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Longitude != nil && p.Latitude != nil {
		resp.Location = &locationPayload{
			Type:        "Point",
			Coordinates: []float64{*p.Longitude, *p.Latitude},
		}
	}
	return resp
}

// toPersonInput はリクエストボディをサービス入力に変換する。
// 位置情報が指定されている場合は[経度, 緯度]の2要素であることを検証する。
func toPersonInput(req personRequest) (person.Input, *model.APIError) {
	input := person.Input{
		Name:     req.Name,
		Province: req.Province,
		City:     req.City,
		Wechat:   req.Wechat,
		Phone:    req.Phone,
	}
	if req.Location != nil {
		if req.Location.Type != "Point" || len(req.Location.Coordinates) != 2 {
			return person.Input{}, model.NewInvalidPersonFieldError("位置情報はGeoJSON Point形式で指定してください")
		}
		lon := req.Location.Coordinates[0]
		lat := req.Location.Coordinates[1]
		input.Longitude = &lon
		input.Latitude = &lat
	}
	return input, nil
}

// List は人員一覧を取得する。
// provinceクエリが指定された場合は該当省の全件を配列でそのまま返し、
// それ以外はページネーション付きのレスポンスを返す。
// GET /api/persons?page=1&limit=10&search=xxx&sort=createdAt&order=desc&province=xxx
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if province := query.Get("province"); province != "" {
		persons, err := h.service.ListByProvince(r.Context(), province)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		responses := make([]personResponse, len(persons))
		for i, p := range persons {
			responses[i] = toPersonResponse(p)
		}
		writeJSON(w, http.StatusOK, responses)
		return
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.service.List(r.Context(), person.ListParams{
		Page:   page,
		Limit:  limit,
		Search: query.Get("search"),
		Sort:   query.Get("sort"),
		Order:  query.Get("order"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]personResponse, len(result.Persons))
	for i, p := range result.Persons {
		responses[i] = toPersonResponse(p)
	}

	writeJSON(w, http.StatusOK, personListResponse{
		Persons: responses,
		Pagination: paginationResponse{
			CurrentPage:  result.CurrentPage,
			TotalPages:   result.TotalPages,
			TotalItems:   result.TotalItems,
			ItemsPerPage: result.PerPage,
		},
	})
}

// Get は人員データの詳細を取得する。
// GET /api/persons/{id}
func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPersonResponse(p))
}

// Create は人員データを作成する。
// POST /api/persons
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPersonFieldError("リクエストボディの解析に失敗しました"))
		return
	}

	input, apiErr := toPersonInput(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPersonResponse(p))
}

// Update は人員データを更新する。
// PUT /api/persons/{id}
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPersonFieldError("リクエストボディの解析に失敗しました"))
		return
	}

	input, apiErr := toPersonInput(req)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPersonResponse(p))
}

// Delete は人員データを削除する。
// DELETE /api/persons/{id}
func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BatchDelete は複数の人員データを一括削除する。
// POST /api/persons/batch-delete
func (h *PersonHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidPersonFieldError("リクエストボディの解析に失敗しました"))
		return
	}

	deleted, err := h.service.BatchDelete(r.Context(), req.IDs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, batchDeleteResponse{DeletedCount: deleted})
}

// Stats は省別の人員数集計を取得する。
// GET /api/persons/stats/province
func (h *PersonHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.StatsByProvince(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]provinceStatResponse, len(stats))
	for i, stat := range stats {
		responses[i] = provinceStatResponse{
			Province: stat.Province,
			Count:    stat.Count,
		}
	}

	writeJSON(w, http.StatusOK, responses)
}
