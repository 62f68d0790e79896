package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/worklog/api"
	"github.com/garnizeh/worklog/pkg/repository/mock"
)

const testSecret = "test-secret"

func TestSignupIssuesToken(t *testing.T) {
	store := mock.NewStore()
	h := api.NewAuthHandler(store, testSecret, time.Hour)

	body := `{"name":"Admin","email":"admin@example.com","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["email"] != "admin@example.com" {
		t.Errorf("email claim = %v", claims["email"])
	}

	if len(store.Operators) != 1 {
		t.Fatalf("operator not stored: %v", store.Operators)
	}
	if store.Operators[0].PasswordHash == "s3cret" {
		t.Error("password stored in clear")
	}
}

func TestSignupRejectsMissingFields(t *testing.T) {
	h := api.NewAuthHandler(mock.NewStore(), testSecret, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader(`{"email":"x@y.it"}`))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSigninChecksPassword(t *testing.T) {
	store := mock.NewStore()
	h := api.NewAuthHandler(store, testSecret, time.Hour)

	// register through the real signup path so the hash is consistent
	signup := httptest.NewRequest(http.MethodPost, "/v1/auth/signup",
		strings.NewReader(`{"name":"Admin","email":"admin@example.com","password":"s3cret"}`))
	h.Signup(httptest.NewRecorder(), signup)

	good := httptest.NewRequest(http.MethodPost, "/v1/auth/signin",
		strings.NewReader(`{"email":"admin@example.com","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	h.Signin(rec, good)
	if rec.Code != http.StatusOK {
		t.Errorf("valid credentials: status = %d", rec.Code)
	}

	bad := httptest.NewRequest(http.MethodPost, "/v1/auth/signin",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	rec = httptest.NewRecorder()
	h.Signin(rec, bad)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	unknown := httptest.NewRequest(http.MethodPost, "/v1/auth/signin",
		strings.NewReader(`{"email":"nobody@example.com","password":"s3cret"}`))
	rec = httptest.NewRecorder()
	h.Signin(rec, unknown)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d, want 401", rec.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	var gotEmail string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = r.Context().Value(api.CtxOperatorEmail).(string)
		w.WriteHeader(http.StatusOK)
	})
	protected := api.JWTAuthMiddlewareWithSecret(testSecret)(inner)

	// no header
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/kpi", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d, want 401", rec.Code)
	}

	// garbage token
	req := httptest.NewRequest(http.MethodGet, "/v1/kpi", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	// valid token carries the operator email into the context
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "admin@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/kpi", nil)
	req = req.WithContext(context.Background())
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rec.Code)
	}
	if gotEmail != "admin@example.com" {
		t.Errorf("operator email in context = %q", gotEmail)
	}
}
