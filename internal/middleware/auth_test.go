package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deliverus/api/internal/model"
	"github.com/deliverus/api/pkg/jwt"
)

// ============================================================================
// Mock TokenValidator
// ============================================================================

type mockValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
}

func (m *mockValidator) Validate(token string) (*jwt.Claims, error) {
	return m.validateFunc(token)
}

// validatorFor returns valid claims for any token
func validatorFor(userID, role string) *mockValidator {
	return &mockValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return &jwt.Claims{UserID: userID, Role: role}, nil
		},
	}
}

// failingValidator returns the specified error
func failingValidator(err error) *mockValidator {
	return &mockValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return nil, err
		},
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem details: %v (body %q)", err, rr.Body.String())
	}
	return p
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_RejectsMissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer ", "Bearertoken"} {
		handler := &captureHandler{}
		rr := httptest.NewRecorder()

		Auth(validatorFor("user:1", model.RoleOwner))(handler).ServeHTTP(rr, newTestRequest(header))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rr.Code)
		}
		if handler.called {
			t.Errorf("header %q: next handler should not be called", header)
		}
	}
}

func TestAuth_MissingHeader_ReportsNotLoggedIn(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()

	Auth(validatorFor("user:1", model.RoleOwner))(&captureHandler{}).ServeHTTP(rr, newTestRequest(""))

	if p := decodeProblem(t, rr); p.Detail != "User is not logged in" {
		t.Errorf("expected not-logged-in detail, got %q", p.Detail)
	}
}

func TestAuth_ValidatorErrors_MapToDetail(t *testing.T) {
	t.Parallel()

	cases := map[error]string{
		jwt.ErrTokenExpired:     "token expired",
		jwt.ErrInvalidSignature: "invalid token signature",
		jwt.ErrInvalidToken:     "invalid token",
	}
	for err, detail := range cases {
		handler := &captureHandler{}
		rr := httptest.NewRecorder()

		Auth(failingValidator(err))(handler).ServeHTTP(rr, newTestRequest("Bearer tok"))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%v: expected 401, got %d", err, rr.Code)
		}
		if p := decodeProblem(t, rr); p.Detail != detail {
			t.Errorf("%v: expected detail %q, got %q", err, detail, p.Detail)
		}
		if handler.called {
			t.Errorf("%v: next handler should not be called", err)
		}
	}
}

func TestAuth_ClaimsWithoutUserID_Rejected(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(validatorFor("", model.RoleOwner))(handler).ServeHTTP(rr, newTestRequest("Bearer tok"))

	if rr.Code != http.StatusUnauthorized || handler.called {
		t.Errorf("expected 401 without calling next, got %d called=%v", rr.Code, handler.called)
	}
}

func TestAuth_ValidToken_SetsPrincipal(t *testing.T) {
	t.Parallel()
	var gotToken string
	validator := &mockValidator{validateFunc: func(token string) (*jwt.Claims, error) {
		gotToken = token
		return &jwt.Claims{UserID: "user:7", Role: model.RoleOwner}, nil
	}}
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rr, newTestRequest("bearer abc.def.ghi"))

	if !handler.called {
		t.Fatal("expected next handler to be called")
	}
	if gotToken != "abc.def.ghi" {
		t.Errorf("expected token passed through, got %q", gotToken)
	}
	p := GetPrincipal(handler.ctx)
	if p == nil || p.ID != "user:7" || p.Role != model.RoleOwner {
		t.Errorf("unexpected principal %+v", p)
	}
	if GetUserID(handler.ctx) != "user:7" {
		t.Errorf("expected user id in context, got %q", GetUserID(handler.ctx))
	}
	if c := GetClaims(handler.ctx); c == nil || c.UserID != "user:7" {
		t.Errorf("expected claims in context, got %+v", c)
	}
}

// ============================================================================
// RequireRole() Middleware Tests
// ============================================================================

func TestRequireRole_NoPrincipal_Returns401(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	RequireRole(model.RoleOwner)(handler).ServeHTTP(rr, newTestRequest(""))

	if rr.Code != http.StatusUnauthorized || handler.called {
		t.Errorf("expected 401 without calling next, got %d", rr.Code)
	}
}

func TestRequireRole_WrongRole_Returns403(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()
	req := newTestRequest("")
	req = req.WithContext(WithPrincipal(req.Context(), &model.Principal{ID: "user:1", Role: model.RoleCustomer}))

	RequireRole(model.RoleOwner)(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if handler.called {
		t.Error("next handler should not be called")
	}
	if p := decodeProblem(t, rr); p.Code != model.ErrCodeWrongRole {
		t.Errorf("expected code %d, got %d", model.ErrCodeWrongRole, p.Code)
	}
}

func TestRequireRole_MatchingRole_Proceeds(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	chain := Chain(handler, Auth(validatorFor("user:1", model.RoleOwner)), RequireRole(model.RoleOwner))
	chain.ServeHTTP(rr, newTestRequest("Bearer tok"))

	if rr.Code != http.StatusOK || !handler.called {
		t.Errorf("expected pass-through, got %d called=%v", rr.Code, handler.called)
	}
}

// ============================================================================
// Context Accessor Tests
// ============================================================================

func TestContextAccessors_Missing_ReturnZero(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if GetUserID(ctx) != "" {
		t.Error("expected empty user id")
	}
	if GetClaims(ctx) != nil {
		t.Error("expected nil claims")
	}
	if GetPrincipal(ctx) != nil {
		t.Error("expected nil principal")
	}
	if WithPrincipal(ctx, nil) != ctx {
		t.Error("expected nil principal to leave context unchanged")
	}
}

func TestContextAccessors_WrongType_ReturnZero(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), PrincipalKey, "not a principal")
	ctx = context.WithValue(ctx, UserIDKey, 42)

	if GetPrincipal(ctx) != nil {
		t.Error("expected nil principal for wrong type")
	}
	if GetUserID(ctx) != "" {
		t.Error("expected empty user id for wrong type")
	}
}
