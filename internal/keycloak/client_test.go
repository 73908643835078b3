package keycloak

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
)

// newKeycloakServer stands up a fake Keycloak that serves the token
// endpoint and delegates admin API paths to the handlers in routes.
func newKeycloakServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var logins atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","expires_in":300,"token_type":"Bearer"}`))
	})
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &logins
}

func testConfig(url string) *config.Config {
	return &config.Config{
		KeycloakURL:          url,
		KeycloakAuthRealm:    "master",
		KeycloakClientID:     "realmsync",
		KeycloakClientSecret: "s3cret",
	}
}

func TestNewClient_ServiceAccountLogin(t *testing.T) {
	srv, logins := newKeycloakServer(t, nil)

	c, err := NewClient(testConfig(srv.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tok, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "test-token" {
		t.Errorf("token = %q, want test-token", tok)
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("a fresh token must be reused, got %d logins", got)
	}
}

func TestNewClient_AdminPasswordLogin(t *testing.T) {
	srv, logins := newKeycloakServer(t, nil)

	cfg := &config.Config{
		KeycloakURL:           srv.URL,
		KeycloakAuthRealm:     "master",
		KeycloakClientID:      "admin-cli",
		KeycloakAdminUser:     "admin",
		KeycloakAdminPassword: "admin",
	}
	if _, err := NewClient(cfg, zap.NewNop()); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("expected one login, got %d", got)
	}
}

func TestNewClient_RejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client","error_description":"Invalid client credentials"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	_, err := NewClient(testConfig(srv.URL), zap.NewNop())
	if err == nil {
		t.Fatal("expected login failure")
	}
	if !IsAuth(err) {
		t.Errorf("expected an AuthError, got %v", err)
	}
}

func TestGetRealm_NotFound(t *testing.T) {
	srv, _ := newKeycloakServer(t, map[string]http.HandlerFunc{
		"GET /admin/realms/missing": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Realm not found."}`))
		},
	})

	c, err := NewClient(testConfig(srv.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GetRealm(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected a NotFoundError, got %v", err)
	}
}

func TestCreateGroup_Conflict(t *testing.T) {
	srv, _ := newKeycloakServer(t, map[string]http.HandlerFunc{
		"POST /admin/realms/myrealm/groups": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"errorMessage":"Top level group named 'mygroup' already exists."}`))
		},
	})

	c, err := NewClient(testConfig(srv.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.CreateGroup(context.Background(), "myrealm", "mygroup")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsConflict(err) {
		t.Errorf("expected a ConflictError, got %v", err)
	}
}

func TestGetGroupByName_ExactMatchOnly(t *testing.T) {
	srv, _ := newKeycloakServer(t, map[string]http.HandlerFunc{
		"GET /admin/realms/myrealm/groups": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("search"); got != "myteam" {
				t.Errorf("search = %q, want myteam", got)
			}
			w.Header().Set("Content-Type", "application/json")
			// The search parameter matches substrings; both come back.
			w.Write([]byte(`[
				{"id":"gid-2","name":"myteam-dev","path":"/myteam-dev"},
				{"id":"gid-1","name":"myteam","path":"/myteam"}
			]`))
		},
	})

	c, err := NewClient(testConfig(srv.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	g, err := c.GetGroupByName(context.Background(), "myrealm", "myteam")
	if err != nil {
		t.Fatalf("GetGroupByName: %v", err)
	}
	if g.ID != "gid-1" || g.Name != "myteam" {
		t.Errorf("got %+v, want the exact-name match gid-1", g)
	}
}

func TestGetGroupByName_NoExactMatch(t *testing.T) {
	srv, _ := newKeycloakServer(t, map[string]http.HandlerFunc{
		"GET /admin/realms/myrealm/groups": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":"gid-2","name":"myteam-dev","path":"/myteam-dev"}]`))
		},
	})

	c, err := NewClient(testConfig(srv.URL), zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GetGroupByName(context.Background(), "myrealm", "myteam")
	if !IsNotFound(err) {
		t.Errorf("a substring-only match must report not found, got %v", err)
	}
}
