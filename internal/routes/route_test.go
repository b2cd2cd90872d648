package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/container"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
)

const testSecret = "routes-secret"

// noProfiles makes AuthMiddleware fall back to the token's role claim.
type noProfiles struct{}

func (noProfiles) CreateUser(ctx context.Context, user *models.User) (interface{}, error) {
	return user, nil
}
func (noProfiles) AuthenticateUser(ctx context.Context, email, password string) (interface{}, error) {
	return nil, models.NotAuthorized("invalid credentials")
}
func (noProfiles) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	return nil, models.NotAuthorized("invalid refresh token")
}
func (noProfiles) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	return nil, models.NotFound("user %s not found", id)
}
func (noProfiles) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (noProfiles) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	return nil
}
func (noProfiles) ListUsers(ctx context.Context, filter models.UserFilter, accessToken string) ([]models.User, error) {
	return []models.User{}, nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
	Total   int             `json:"total"`
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	app    *container.Container
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	app := container.NewContainer(container.Deps{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:       models.NewMemoryRepo(),
		Users:       noProfiles{},
		Tokens:      helpers.NewTokenValidator(testSecret, ""),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &harness{t: t, router: SetupRoutes(app), app: app}
}

func (h *harness) token(id uuid.UUID, role models.Role) string {
	h.t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id.String(),
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		h.t.Fatalf("sign: %v", err)
	}
	return s
}

func (h *harness) do(method, path, token string, body interface{}) (int, apiResponse) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var res apiResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			h.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, res
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	orgID, v1ID, v2ID := uuid.New(), uuid.New(), uuid.New()
	org := h.token(orgID, models.RoleUser)
	v1 := h.token(v1ID, models.RoleVendor)
	v2 := h.token(v2ID, models.RoleVendor)

	status, res := h.do(http.MethodPost, "/api/v1/events", org, gin.H{
		"title":      "Ama & Kofi Wedding",
		"event_type": "wedding",
		"date":       time.Now().AddDate(0, 2, 0).Format(time.RFC3339),
		"location":   "Accra",
		"vendor_requirements": []gin.H{
			{"category": "Catering", "budget": 2000},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("create event = %d %s", status, res.Error)
	}
	var event struct {
		ID           string `json:"id"`
		Requirements []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"vendor_requirements"`
	}
	decode(t, res.Data, &event)
	if len(event.Requirements) != 1 || event.Requirements[0].Status != "open" {
		t.Fatalf("event = %+v", event)
	}
	reqID := event.Requirements[0].ID

	status, res = h.do(http.MethodGet, "/api/v1/requirements/open", v1, nil)
	if status != http.StatusOK {
		t.Fatalf("open requirements = %d", status)
	}
	var open []json.RawMessage
	decode(t, res.Data, &open)
	if len(open) != 1 {
		t.Fatalf("open = %d", len(open))
	}
	if status, _ := h.do(http.MethodGet, "/api/v1/requirements/open", org, nil); status != http.StatusForbidden {
		t.Fatalf("organizer browsing open requirements = %d", status)
	}

	submit := func(token string, price float64) (int, apiResponse) {
		return h.do(http.MethodPost, "/api/v1/proposals", token, gin.H{
			"event_id":       event.ID,
			"requirement_id": reqID,
			"category":       "catering",
			"proposal":       "Jollof, waakye and small chops for 200",
			"price":          price,
		})
	}
	status, res = submit(v1, 500)
	if status != http.StatusCreated {
		t.Fatalf("v1 submit = %d %s", status, res.Error)
	}
	var p1 struct {
		ID string `json:"id"`
	}
	decode(t, res.Data, &p1)

	status, res = submit(v2, 450)
	if status != http.StatusCreated {
		t.Fatalf("v2 submit = %d %s", status, res.Error)
	}
	var p2 struct {
		ID string `json:"id"`
	}
	decode(t, res.Data, &p2)

	if status, res := submit(org, 100); status != http.StatusForbidden || res.Kind != string(models.KindNotAuthorized) {
		t.Fatalf("non-vendor submit = %d %q", status, res.Kind)
	}

	decision := gin.H{"status": "approved"}
	if status, res := h.do(http.MethodPatch, "/api/v1/proposals/"+p1.ID+"/decision", v2, decision); status != http.StatusForbidden {
		t.Fatalf("vendor deciding = %d %s", status, res.Error)
	}
	status, res = h.do(http.MethodPatch, "/api/v1/proposals/"+p1.ID+"/decision", org, decision)
	if status != http.StatusOK {
		t.Fatalf("approve p1 = %d %s", status, res.Error)
	}
	status, res = h.do(http.MethodPatch, "/api/v1/proposals/"+p2.ID+"/decision", org, decision)
	if status != http.StatusConflict || res.Kind != string(models.KindInvalidState) {
		t.Fatalf("approve p2 = %d %q", status, res.Kind)
	}
	if status, res := submit(v2, 400); status != http.StatusConflict {
		t.Fatalf("submit to assigned requirement = %d %s", status, res.Error)
	}

	h.app.Notifier.Wait()
	status, res = h.do(http.MethodGet, "/api/v1/notifications", v1, nil)
	if status != http.StatusOK {
		t.Fatalf("notifications = %d", status)
	}
	var notes []struct {
		Message string `json:"message"`
	}
	decode(t, res.Data, &notes)
	if len(notes) != 1 || notes[0].Message != "Your proposal for the event 'Ama & Kofi Wedding' has been approved!" {
		t.Fatalf("notifications = %+v", notes)
	}
	_, res = h.do(http.MethodGet, "/api/v1/notifications", v2, nil)
	var none []json.RawMessage
	decode(t, res.Data, &none)
	if len(none) != 0 {
		t.Fatalf("v2 notifications = %d", len(none))
	}

	reopenPath := "/api/v1/events/" + event.ID + "/requirements/" + reqID + "/reopen"
	if status, _ := h.do(http.MethodPatch, reopenPath, org, nil); status != http.StatusForbidden {
		t.Fatalf("organizer reopen = %d", status)
	}
	adminToken := h.token(uuid.New(), models.RoleAdmin)
	if status, res := h.do(http.MethodPatch, reopenPath, adminToken, nil); status != http.StatusOK {
		t.Fatalf("admin reopen = %d %s", status, res.Error)
	}
}

func TestPublicAndErrorRoutes(t *testing.T) {
	h := newHarness(t)

	if status, _ := h.do(http.MethodGet, "/api/v1/health", "", nil); status != http.StatusOK {
		t.Fatalf("health = %d", status)
	}
	status, res := h.do(http.MethodGet, "/api/v1/events", "", nil)
	if status != http.StatusOK || !res.Success {
		t.Fatalf("list events = %d", status)
	}
	if status, _ := h.do(http.MethodGet, "/api/v1/events?limit=abc", "", nil); status != http.StatusBadRequest {
		t.Fatalf("bad limit = %d", status)
	}
	if status, res := h.do(http.MethodGet, "/api/v1/events/not-an-id", "", nil); status != http.StatusBadRequest || res.Kind != string(models.KindValidation) {
		t.Fatalf("bad id = %d %q", status, res.Kind)
	}
	if status, res := h.do(http.MethodGet, "/api/v1/events/"+"65f1a0c2e4b0a1b2c3d4e5f6", "", nil); status != http.StatusNotFound || res.Kind != string(models.KindNotFound) {
		t.Fatalf("missing event = %d %q", status, res.Kind)
	}
	if status, _ := h.do(http.MethodGet, "/api/v1/profile", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("profile without token = %d", status)
	}

	id := uuid.New()
	status, res = h.do(http.MethodGet, "/api/v1/profile", h.token(id, models.RoleVendor), nil)
	if status != http.StatusOK {
		t.Fatalf("profile = %d", status)
	}
	var profile struct {
		ID   uuid.UUID   `json:"id"`
		Role models.Role `json:"role"`
	}
	decode(t, res.Data, &profile)
	if profile.ID != id || profile.Role != models.RoleVendor {
		t.Fatalf("profile = %+v", profile)
	}

	if status, _ := h.do(http.MethodDelete, "/api/v1/users/"+uuid.NewString(), h.token(id, models.RoleVendor), nil); status != http.StatusForbidden {
		t.Fatalf("non-admin delete user = %d", status)
	}
	vendorToken, adminToken := h.token(id, models.RoleVendor), h.token(uuid.New(), models.RoleAdmin)
	if status, _ := h.do(http.MethodGet, "/api/v1/users", vendorToken, nil); status != http.StatusForbidden {
		t.Fatalf("non-admin list users = %d", status)
	}
	if status, _ := h.do(http.MethodGet, "/api/v1/users?role=vendor", adminToken, nil); status != http.StatusOK {
		t.Fatalf("admin list vendors = %d", status)
	}
	if status, res := h.do(http.MethodGet, "/api/v1/users?role=superuser", adminToken, nil); status != http.StatusBadRequest || res.Kind != string(models.KindValidation) {
		t.Fatalf("unknown role filter = %d %q", status, res.Kind)
	}
	if status, _ := h.do(http.MethodGet, "/api/v1/users/all", vendorToken, nil); status != http.StatusOK {
		t.Fatalf("contacts = %d", status)
	}
	if status, _ := h.do(http.MethodPost, "/api/v1/login", "", gin.H{"email": "a@example.com", "password": "whatever1"}); status != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", status)
	}
}
