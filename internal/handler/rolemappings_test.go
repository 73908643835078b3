package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/rolemapping"
)

// fakeKeycloak is a minimal stateful stand-in for the Keycloak admin API,
// covering the endpoints the handlers under test reach.
type fakeKeycloak struct {
	mu         sync.Mutex
	nextID     int
	groups     map[string]string   // name -> id
	realmRoles map[string]string   // name -> id
	assigned   map[string][]string // group id -> role names in mapping order
}

func newFakeKeycloak() *fakeKeycloak {
	return &fakeKeycloak{
		groups:     make(map[string]string),
		realmRoles: make(map[string]string),
		assigned:   make(map[string][]string),
	}
}

func (f *fakeKeycloak) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","expires_in":300,"token_type":"Bearer"}`))
	})

	mux.HandleFunc("GET /admin/realms/myrealm/groups", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		search := r.URL.Query().Get("search")
		out := []map[string]string{}
		for name, id := range f.groups {
			if search == "" || strings.Contains(name, search) {
				out = append(out, map[string]string{"id": id, "name": name, "path": "/" + name})
			}
		}
		writeBody(w, out)
	})

	mux.HandleFunc("POST /admin/realms/myrealm/groups", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, exists := f.groups[body.Name]; exists {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.nextID++
		id := fmt.Sprintf("gid-%d", f.nextID)
		f.groups[body.Name] = id
		w.Header().Set("Location", "/admin/realms/myrealm/groups/"+id)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("DELETE /admin/realms/myrealm/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		for name, gid := range f.groups {
			if gid == id {
				delete(f.groups, name)
				delete(f.assigned, id)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("GET /admin/realms/myrealm/roles/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := r.PathValue("name")
		id, ok := f.realmRoles[name]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Could not find role"}`))
			return
		}
		writeBody(w, roleJSON(id, name))
	})

	mux.HandleFunc("GET /admin/realms/myrealm/groups/{id}/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeBody(w, f.rolesOf(f.assigned[r.PathValue("id")]))
	})

	mux.HandleFunc("GET /admin/realms/myrealm/groups/{id}/role-mappings/realm/available", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		mapped := make(map[string]bool)
		for _, name := range f.assigned[r.PathValue("id")] {
			mapped[name] = true
		}
		avail := []string{}
		for name := range f.realmRoles {
			if !mapped[name] {
				avail = append(avail, name)
			}
		}
		writeBody(w, f.rolesOf(avail))
	})

	mux.HandleFunc("POST /admin/realms/myrealm/groups/{id}/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		for _, name := range decodeRoleNames(r) {
			f.assigned[id] = append(f.assigned[id], name)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /admin/realms/myrealm/groups/{id}/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		drop := make(map[string]bool)
		for _, name := range decodeRoleNames(r) {
			drop[name] = true
		}
		kept := []string{}
		for _, name := range f.assigned[id] {
			if !drop[name] {
				kept = append(kept, name)
			}
		}
		f.assigned[id] = kept
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func (f *fakeKeycloak) rolesOf(names []string) []map[string]any {
	out := []map[string]any{}
	for _, name := range names {
		out = append(out, roleJSON(f.realmRoles[name], name))
	}
	return out
}

func roleJSON(id, name string) map[string]any {
	return map[string]any{
		"id": id, "name": name,
		"composite": false, "clientRole": false, "containerId": "myrealm",
	}
}

func decodeRoleNames(r *http.Request) []string {
	var roles []struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&roles)
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names
}

func writeBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newTestHandler wires a Handler against the fake Keycloak and returns a
// mux with the routes the tests exercise.
func newTestHandler(t *testing.T, fake *fakeKeycloak) http.Handler {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		KeycloakURL:          srv.URL,
		KeycloakAuthRealm:    "master",
		KeycloakClientID:     "realmsync",
		KeycloakClientSecret: "s3cret",
	}

	kc, err := keycloak.NewClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	h := NewHandler(cfg, kc, rolemapping.NewEngine(kc, zap.NewNop()), zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/realms/{realm}/groups/{name}", h.GetGroup)
	mux.HandleFunc("PUT /api/v1/realms/{realm}/groups/{name}", h.ApplyGroup)
	mux.HandleFunc("GET /api/v1/realms/{realm}/groups/{name}/role-mappings", h.GetGroupRoleMappings)
	mux.HandleFunc("POST /api/v1/realms/{realm}/groups/{name}/role-mappings", h.ApplyGroupRoleMappings)
	return mux
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) model.Result {
	t.Helper()
	var res model.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v (body %s)", err, rec.Body.String())
	}
	return res
}

func TestApplyGroupRoleMappings_Lifecycle(t *testing.T) {
	fake := newFakeKeycloak()
	fake.groups["mygroup"] = "gid-1"
	fake.realmRoles["myrole"] = "rid-1"
	h := newTestHandler(t, fake)

	target := "/api/v1/realms/myrealm/groups/mygroup/role-mappings"
	body := `{"state":"present","roles":[{"name":"myrole"}]}`

	// Map.
	rec := doJSON(t, h, http.MethodPost, target, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("map: status %d body %s", rec.Code, rec.Body.String())
	}
	res := decodeResult(t, rec)
	if !res.Changed {
		t.Error("map must report changed=true")
	}
	if len(res.EndState) != 1 || res.EndState[0].Name != "myrole" {
		t.Errorf("end_state = %v, want [myrole]", res.EndState)
	}
	if len(res.Existing) != 0 {
		t.Errorf("existing = %v, want empty", res.Existing)
	}

	// Map again: idempotent.
	res = decodeResult(t, doJSON(t, h, http.MethodPost, target, body))
	if res.Changed {
		t.Error("re-applying the same mapping must report changed=false")
	}

	// Read back.
	rec = doJSON(t, h, http.MethodGet, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var roles []model.Role
	if err := json.Unmarshal(rec.Body.Bytes(), &roles); err != nil {
		t.Fatalf("decode roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "myrole" {
		t.Errorf("mappings = %v, want [myrole]", roles)
	}

	// Unmap.
	res = decodeResult(t, doJSON(t, h, http.MethodPost, target,
		`{"state":"absent","roles":[{"name":"myrole"}]}`))
	if !res.Changed {
		t.Error("unmap must report changed=true")
	}
	if len(res.Existing) != 1 {
		t.Errorf("existing = %v, want the pre-unmap mapping", res.Existing)
	}
	if len(res.EndState) != 0 {
		t.Errorf("end_state = %v, want empty", res.EndState)
	}
}

func TestApplyGroupRoleMappings_StateDefaultsToPresent(t *testing.T) {
	fake := newFakeKeycloak()
	fake.groups["mygroup"] = "gid-1"
	fake.realmRoles["myrole"] = "rid-1"
	h := newTestHandler(t, fake)

	res := decodeResult(t, doJSON(t, h, http.MethodPost,
		"/api/v1/realms/myrealm/groups/mygroup/role-mappings",
		`{"roles":[{"name":"myrole"}]}`))
	if !res.Changed {
		t.Error("omitted state must default to present and map the role")
	}
}

func TestApplyGroupRoleMappings_Validation(t *testing.T) {
	fake := newFakeKeycloak()
	fake.groups["mygroup"] = "gid-1"
	h := newTestHandler(t, fake)
	target := "/api/v1/realms/myrealm/groups/mygroup/role-mappings"

	tests := []struct {
		name string
		body string
	}{
		{"invalid state", `{"state":"latest","roles":[{"name":"myrole"}]}`},
		{"no roles", `{"state":"present","roles":[]}`},
		{"role without name or id", `{"state":"present","roles":[{}]}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestApplyGroupRoleMappings_UnknownRole(t *testing.T) {
	fake := newFakeKeycloak()
	fake.groups["mygroup"] = "gid-1"
	h := newTestHandler(t, fake)

	rec := doJSON(t, h, http.MethodPost,
		"/api/v1/realms/myrealm/groups/mygroup/role-mappings",
		`{"state":"present","roles":[{"name":"nope"}]}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for an unknown role", rec.Code)
	}
}

func TestApplyGroup_Lifecycle(t *testing.T) {
	fake := newFakeKeycloak()
	h := newTestHandler(t, fake)
	target := "/api/v1/realms/myrealm/groups/newgroup"

	// Create.
	rec := doJSON(t, h, http.MethodPut, target, `{"state":"present"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Changed  bool         `json:"changed"`
		EndState *model.Group `json:"end_state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Changed {
		t.Error("create must report changed=true")
	}
	if res.EndState == nil || res.EndState.ID == "" {
		t.Errorf("end_state must carry the created group, got %+v", res.EndState)
	}

	// Idempotent re-apply.
	if err := json.Unmarshal(doJSON(t, h, http.MethodPut, target, `{"state":"present"}`).Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Changed {
		t.Error("re-applying an existing group must report changed=false")
	}

	// Delete.
	if err := json.Unmarshal(doJSON(t, h, http.MethodPut, target, `{"state":"absent"}`).Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Changed {
		t.Error("delete must report changed=true")
	}

	// Reading the deleted group reports not found.
	if rec := doJSON(t, h, http.MethodGet, target, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}
