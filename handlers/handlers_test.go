package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/middleware"
	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/repositories/repotest"
	"github.com/blazzica/marketplace-api/services/admin"
	"github.com/blazzica/marketplace-api/services/booking"
	"github.com/blazzica/marketplace-api/services/catalog"
	"github.com/blazzica/marketplace-api/services/provider"
	"github.com/blazzica/marketplace-api/services/review"
	"github.com/blazzica/marketplace-api/utils"
)

type harness struct {
	router http.Handler
	mocks  *repotest.Mocks
	rec    *repotest.Recorder
}

// newHarness mounts every resource handler over mocked repositories.
// Requests carry the caller named by the X-Test-Caller header.
func newHarness() *harness {
	mocks := repotest.New()
	rec := &repotest.Recorder{}
	repos := mocks.Repositories()
	logger := zap.NewNop()

	services := NewServiceHandler(catalog.NewService(repos, rec, logger), logger)
	bookings := NewBookingHandler(booking.NewService(repos, rec, logger), logger)
	providers := NewProviderHandler(provider.NewService(repos, rec, logger), logger)
	reviews := NewReviewHandler(review.NewService(repos, rec, logger), logger)
	admins := NewAdminHandler(admin.NewService(repos, rec, logger), logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if sub := req.Header.Get("X-Test-Caller"); sub != "" {
				identity := models.NewIdentity(sub, "", req.Header.Get("X-Test-Role"))
				req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Route("/services", func(r chi.Router) {
		r.Get("/", services.HandleList)
		r.Get("/providers", services.HandleFindProviders)
		r.Get("/provider/{provider_id}", services.HandleListByProvider)
		r.Get("/by-title/{title}", services.HandleGetByTitle)
		r.Get("/{service_id}", services.HandleGet)
		r.Post("/", services.HandleCreate)
		r.Put("/{service_id}", services.HandleUpdate)
		r.Delete("/{service_id}", services.HandleDelete)
	})
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", bookings.HandleCreate)
		r.Get("/", bookings.HandleList)
		r.Post("/{booking_id}/status", bookings.HandleUpdateStatus)
		r.Get("/{booking_id}", bookings.HandleGet)
		r.Put("/{booking_id}", bookings.HandleUpdate)
		r.Delete("/{booking_id}", bookings.HandleCancel)
	})
	r.Route("/providers", func(r chi.Router) {
		r.Post("/", providers.HandleCreate)
		r.Put("/", providers.HandleUpdate)
		r.Get("/{provider_id}", providers.HandleGet)
	})
	r.Route("/reviews", func(r chi.Router) {
		r.Post("/", reviews.HandleCreate)
		r.Get("/provider/{provider_id}", reviews.HandleListByProvider)
		r.Get("/service/{service_id}", reviews.HandleListByService)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Get("/", admins.HandleRoot)
		r.Get("/users", admins.HandleListUsers)
		r.Get("/users/{user_id}", admins.HandleGetUser)
		r.Put("/users/{user_id}", admins.HandleUpdateUser)
		r.Put("/users/{user_id}/role", admins.HandleUpdateRole)
		r.Get("/dashboard/stats", admins.HandleDashboardStats)
		r.Get("/audit-logs", admins.HandleAuditLogs)
	})

	return &harness{router: r, mocks: mocks, rec: rec}
}

func (h *harness) do(method, path, body string, caller uuid.UUID, role models.Role) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != uuid.Nil {
		req.Header.Set("X-Test-Caller", caller.String())
		req.Header.Set("X-Test-Role", string(role))
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: dst}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestServiceHandler_List(t *testing.T) {
	h := newHarness()
	active := true
	lo, hi := 10.0, 50.0
	h.mocks.Services.On("List", mock.Anything, models.ServiceFilter{
		Category: "cleaning", MinPrice: &lo, MaxPrice: &hi, IsActive: &active,
	}).Return([]*models.Service{{ID: uuid.New(), Title: "Deep clean", Price: 40}}, nil)

	w := h.do(http.MethodGet, "/services/?category=cleaning&min_price=10&max_price=50", "", uuid.Nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Service
	decodeData(t, w, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "Deep clean", got[0].Title)
	h.mocks.AssertExpectations(t)
}

func TestServiceHandler_ListRejectsBadQuery(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/services/?min_price=cheap", "", uuid.Nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "min_price must be a number", decodeErr(t, w).Message)
}

func TestServiceHandler_Create(t *testing.T) {
	h := newHarness()
	caller := uuid.New()
	h.mocks.Users.On("GetByID", mock.Anything, caller).Return(&models.User{ID: caller, Role: models.RoleProvider}, nil)
	h.mocks.Services.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := h.do(http.MethodPost, "/services/",
		`{"title":" Window washing ","description":"Both sides","price":35.5,"category":"cleaning"}`,
		caller, models.RoleProvider)

	require.Equal(t, http.StatusCreated, w.Code)
	var got models.Service
	decodeData(t, w, &got)
	assert.Equal(t, "Window washing", got.Title)
	assert.Equal(t, caller, got.ProviderID)
	assert.Equal(t, []models.AuditAction{models.AuditActionServiceCreated}, h.rec.Actions())
}

func TestServiceHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing title", body: `{"description":"x","price":1,"category":"c"}`, field: "title"},
		{name: "negative price", body: `{"title":"t","description":"x","price":-1,"category":"c"}`, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			w := h.do(http.MethodPost, "/services/", tt.body, uuid.New(), models.RoleProvider)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeErr(t, w).Details, tt.field)
			h.mocks.Users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestServiceHandler_CreateRejectsUnknownFields(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodPost, "/services/",
		`{"title":"t","description":"x","price":1,"category":"c","provider_id":"someone-else"}`,
		uuid.New(), models.RoleProvider)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeErr(t, w).Message, "unknown field")
}

func TestServiceHandler_CreateRequiresCaller(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodPost, "/services/", `{}`, uuid.Nil, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceHandler_GetBadID(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/services/not-a-uuid", "", uuid.Nil, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "service_id must be a valid UUID", decodeErr(t, w).Message)
}

func TestServiceHandler_DeleteByStranger(t *testing.T) {
	h := newHarness()
	owner, stranger := uuid.New(), uuid.New()
	listing := models.NewService(owner, "Tutoring", "", "education", 20)
	h.mocks.Services.On("GetByID", mock.Anything, listing.ID).Return(listing, nil)
	h.mocks.Users.On("GetByID", mock.Anything, stranger).Return(&models.User{ID: stranger, Role: models.RoleProvider}, nil)

	w := h.do(http.MethodDelete, "/services/"+listing.ID.String(), "", stranger, models.RoleProvider)

	assert.Equal(t, http.StatusForbidden, w.Code)
	h.mocks.Services.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestBookingHandler_Create(t *testing.T) {
	h := newHarness()
	client, provider := uuid.New(), uuid.New()
	listing := models.NewService(provider, "Massage", "", "wellness", 60)
	h.mocks.Services.On("GetByID", mock.Anything, listing.ID).Return(listing, nil)
	h.mocks.Bookings.On("Create", mock.Anything, mock.Anything).Return(nil)

	w := h.do(http.MethodPost, "/bookings/",
		`{"service_id":"`+listing.ID.String()+`","scheduled_at":"2026-11-02T15:00:00Z","notes":"ring twice"}`,
		client, models.RoleClient)

	require.Equal(t, http.StatusCreated, w.Code)
	var got models.Booking
	decodeData(t, w, &got)
	assert.Equal(t, models.BookingStatusPending, got.Status)
	assert.Equal(t, 60.0, got.TotalPrice)
	assert.Equal(t, time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC), got.ScheduledAt.Time)
}

func TestBookingHandler_ListRejectsUnknownStatus(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/bookings/?status=lost", "", uuid.New(), models.RoleClient)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.mocks.Bookings.AssertNotCalled(t, "ListByClient", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		from     models.BookingStatus
		to       string
		asClient bool
		wantCode int
	}{
		{name: "provider confirms", from: models.BookingStatusPending, to: "confirmed", wantCode: http.StatusOK},
		{name: "provider completes", from: models.BookingStatusConfirmed, to: "completed", wantCode: http.StatusOK},
		{name: "completed cannot reopen", from: models.BookingStatusCompleted, to: "pending", wantCode: http.StatusBadRequest},
		{name: "client cannot respond", from: models.BookingStatusPending, to: "confirmed", asClient: true, wantCode: http.StatusForbidden},
		{name: "unknown status", from: models.BookingStatusPending, to: "teleported", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			client, provider := uuid.New(), uuid.New()
			b := models.NewBooking(client, models.NewService(provider, "Yoga", "", "wellness", 30), models.Now(), nil)
			b.Status = tt.from
			h.mocks.Bookings.On("GetByID", mock.Anything, b.ID).Return(b, nil)
			h.mocks.Bookings.On("Update", mock.Anything, b.ID, mock.Anything).Return(b, nil)

			caller := provider
			if tt.asClient {
				caller = client
			}
			w := h.do(http.MethodPost, "/bookings/"+b.ID.String()+"/status", `{"status":"`+tt.to+`"}`, caller, models.RoleProvider)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestBookingHandler_Cancel(t *testing.T) {
	h := newHarness()
	client, provider := uuid.New(), uuid.New()
	b := models.NewBooking(client, models.NewService(provider, "Yoga", "", "wellness", 30), models.Now(), nil)
	cancelled := *b
	cancelled.Status = models.BookingStatusCancelled
	h.mocks.Bookings.On("GetByID", mock.Anything, b.ID).Return(b, nil)
	h.mocks.Bookings.On("Update", mock.Anything, b.ID, map[string]any{"status": models.BookingStatusCancelled}).Return(&cancelled, nil)

	w := h.do(http.MethodDelete, "/bookings/"+b.ID.String(), "", client, models.RoleClient)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBookingHandler_GetNotFound(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.mocks.Bookings.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	w := h.do(http.MethodGet, "/bookings/"+id.String(), "", uuid.New(), models.RoleClient)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Booking not found", decodeErr(t, w).Message)
}

func TestProviderHandler_Get(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.mocks.Profiles.On("GetByUserID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	w := h.do(http.MethodGet, "/providers/"+id.String(), "", uuid.Nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProviderHandler_CreateByClient(t *testing.T) {
	h := newHarness()
	caller := uuid.New()
	h.mocks.Users.On("GetByID", mock.Anything, caller).Return(&models.User{ID: caller, Role: models.RoleClient}, nil)

	w := h.do(http.MethodPost, "/providers/", `{"bio":"hi"}`, caller, models.RoleClient)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewHandler_CreateRatingOutOfRange(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodPost, "/reviews/", `{"booking_id":"`+uuid.NewString()+`","rating":6}`, uuid.New(), models.RoleClient)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating must be between 1 and 5", decodeErr(t, w).Message)
}

func TestReviewHandler_ListByService(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.mocks.Reviews.On("ListByService", mock.Anything, id).Return([]*models.Review{{ID: uuid.New(), Rating: 5}}, nil)

	w := h.do(http.MethodGet, "/reviews/service/"+id.String(), "", uuid.Nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Review
	decodeData(t, w, &got)
	assert.Len(t, got, 1)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	h := newHarness()
	role := models.RolePendingProvider
	h.mocks.Users.On("List", mock.Anything, models.UserFilter{Role: &role, Offset: 20, Limit: 10}).
		Return([]*models.User{}, nil)

	w := h.do(http.MethodGet, "/admin/users?role=pending_provider&skip=20&limit=10", "", uuid.New(), models.RoleAdmin)

	assert.Equal(t, http.StatusOK, w.Code)
	h.mocks.AssertExpectations(t)
}

func TestAdminHandler_ListUsersBadQuery(t *testing.T) {
	tests := []struct {
		query   string
		message string
	}{
		{query: "role=wizard", message: "Unknown role"},
		{query: "limit=-1", message: "limit must be a non-negative integer"},
		{query: "is_verified=maybe", message: "is_verified must be a boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			h := newHarness()
			w := h.do(http.MethodGet, "/admin/users?"+tt.query, "", uuid.New(), models.RoleAdmin)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeErr(t, w).Message)
		})
	}
}

func TestAdminHandler_UpdateRole(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.mocks.Users.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Role: models.RolePendingProvider}, nil)
	h.mocks.Users.On("Update", mock.Anything, id, map[string]any{"role": models.RoleProvider}).
		Return(&models.User{ID: id, Role: models.RoleProvider}, nil)

	w := h.do(http.MethodPut, "/admin/users/"+id.String()+"/role?role=provider", "", uuid.New(), models.RoleAdmin)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.User
	decodeData(t, w, &got)
	assert.Equal(t, models.RoleProvider, got.Role)
}

func TestAdminHandler_UpdateRoleMissingParam(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodPut, "/admin/users/"+uuid.NewString()+"/role", "", uuid.New(), models.RoleAdmin)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_AuditLogs(t *testing.T) {
	h := newHarness()
	h.mocks.AuditLogs.On("List", mock.Anything, 50, 5).Return([]*models.AuditLog{}, nil)

	w := h.do(http.MethodGet, "/admin/audit-logs?limit=50&offset=5", "", uuid.New(), models.RoleAdmin)

	assert.Equal(t, http.StatusOK, w.Code)
	h.mocks.AssertExpectations(t)
}

func TestAdminHandler_Root(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/admin/", "", uuid.New(), models.RoleAdmin)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Admin endpoints")
}
