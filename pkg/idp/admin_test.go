package idp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/libromesh/identity/pkg/iam/auth"
	"github.com/libromesh/identity/pkg/iam/role"
)

const adminBase = "/admin/realms/libromesh"

// newAdminFake wires the service-account token grant so admin calls can
// authenticate, and verifies every admin request carries the fetched token.
func newAdminFake(t *testing.T) *fakeIdP {
	t.Helper()
	f := newFakeIdP(t)
	f.serveServiceAccountToken(nil)
	return f
}

func (f *fakeIdP) admin(path string, h http.HandlerFunc) {
	f.mux.HandleFunc(adminBase+path, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer service-account-token" {
			f.t.Errorf("admin call without service account token: %q", got)
		}
		h(w, r)
	})
}

func TestCreateAccount(t *testing.T) {
	f := newAdminFake(t)

	var passwordSet bool
	f.admin("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		var rep map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			t.Fatalf("undecodable create payload: %v", err)
		}
		if rep["username"] != "margaret" || rep["email"] != "margaret@example.org" {
			t.Errorf("profile not forwarded: %v", rep)
		}
		if rep["enabled"] != true {
			t.Error("self-registered accounts must be enabled")
		}
		if rep["emailVerified"] != false {
			t.Error("self-registered accounts must start unverified")
		}
		w.Header().Set("Location", f.srv.URL+adminBase+"/users/abc-123")
		w.WriteHeader(http.StatusCreated)
	})
	f.admin("/users/abc-123/reset-password", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		var cred map[string]any
		if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
			t.Fatalf("undecodable credential payload: %v", err)
		}
		if cred["type"] != "password" || cred["value"] != "hunter2" || cred["temporary"] != false {
			t.Errorf("unexpected credential payload: %v", cred)
		}
		passwordSet = true
		w.WriteHeader(http.StatusNoContent)
	})

	id, err := f.client().CreateAccount(context.Background(), auth.NewAccount{
		Username:  "margaret",
		Email:     "margaret@example.org",
		FirstName: "Margaret",
		LastName:  "Hamilton",
		Password:  "hunter2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "abc-123" {
		t.Fatalf("expected ID from Location header, got %q", id)
	}
	if !passwordSet {
		t.Fatal("permanent password was never set")
	}
}

func TestCreateAccount_Conflict(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"errorMessage":"User exists with same username"}`)
	})

	_, err := f.client().CreateAccount(context.Background(), auth.NewAccount{
		Username: "margaret", Email: "m@example.org", Password: "hunter2",
	})
	xerr := asErrx(t, err)
	if xerr.Code != "USER_CONFLICT" {
		t.Fatalf("expected USER_CONFLICT, got %s", xerr.Code)
	}
	if xerr.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409, got %d", xerr.HTTPStatus)
	}
}

func TestGetUser(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/users/abc-123", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"id": "abc-123",
			"username": "margaret",
			"email": "margaret@example.org",
			"firstName": "Margaret",
			"lastName": "Hamilton",
			"enabled": true,
			"emailVerified": true,
			"createdTimestamp": 1700000000000
		}`)
	})

	u, err := f.client().Get(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Username != "margaret" || u.FirstName != "Margaret" {
		t.Fatalf("representation not mapped: %+v", u)
	}
	if u.CreatedAt.UnixMilli() != 1700000000000 {
		t.Fatalf("createdTimestamp not mapped: %v", u.CreatedAt)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/users/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"User not found"}`)
	})

	_, err := f.client().Get(context.Background(), "missing")
	xerr := asErrx(t, err)
	if xerr.Code != "USER_NOT_FOUND" {
		t.Fatalf("expected USER_NOT_FOUND, got %s", xerr.Code)
	}
}

func TestListUsers_OffsetWindow(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/users", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("first") != "20" || q.Get("max") != "10" {
			t.Errorf("expected first=20&max=10, got %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, `[{"id":"u1","username":"a"},{"id":"u2","username":"b"}]`)
	})

	users, err := f.client().List(context.Background(), 20, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].Username != "a" {
		t.Fatalf("list not mapped: %+v", users)
	}
}

func TestCountUsers_BareNumber(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/users/count", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("42"))
	})

	n, err := f.client().Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42, got %d", n)
	}
}

func TestAssignRoles(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/roles/PATRON", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"r1","name":"PATRON"}`)
	})
	f.admin("/roles/LIBRARIAN", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"r2","name":"LIBRARIAN"}`)
	})
	f.admin("/users/abc-123/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		var reps []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reps); err != nil {
			t.Fatalf("undecodable mapping payload: %v", err)
		}
		if len(reps) != 2 || reps[0]["name"] != "PATRON" || reps[1]["name"] != "LIBRARIAN" {
			t.Errorf("expected resolved representations, got %v", reps)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := f.client().AssignRoles(context.Background(), "abc-123", []string{"PATRON", "LIBRARIAN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssignRoles_UnknownNameAborts(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/roles/BOGUS", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"Could not find role"}`)
	})
	f.admin("/users/abc-123/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no mapping call may happen when a name fails to resolve")
	})

	err := f.client().AssignRoles(context.Background(), "abc-123", []string{"BOGUS"})
	xerr := asErrx(t, err)
	if xerr.Code != "ROLE_NOT_FOUND" {
		t.Fatalf("expected ROLE_NOT_FOUND, got %s", xerr.Code)
	}
}

func TestClearRoles(t *testing.T) {
	f := newAdminFake(t)
	var deleted bool
	f.admin("/users/abc-123/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `[{"id":"r1","name":"PATRON"},{"id":"r2","name":"GUEST"}]`)
		case http.MethodDelete:
			var reps []map[string]any
			if err := json.NewDecoder(r.Body).Decode(&reps); err != nil {
				t.Fatalf("undecodable delete payload: %v", err)
			}
			if len(reps) != 2 {
				t.Errorf("expected both mappings in delete, got %v", reps)
			}
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	})

	if err := f.client().ClearRoles(context.Background(), "abc-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected existing mappings to be deleted")
	}
}

func TestEnsureRole_ToleratesExisting(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/roles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"errorMessage":"Role with name PATRON already exists"}`)
	})

	err := f.client().EnsureRole(context.Background(), role.Role{Name: "PATRON"})
	if err != nil {
		t.Fatalf("an existing role must not fail seeding: %v", err)
	}
}

func TestAdmin_ServiceAccountRejected(t *testing.T) {
	f := newAdminFake(t)
	f.admin("/users/abc-123", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"error":"insufficient permissions"}`)
	})

	_, err := f.client().Get(context.Background(), "abc-123")
	xerr := asErrx(t, err)
	if xerr.Code != "IDP_INTERNAL" {
		t.Fatalf("a rejected service account is broker misconfiguration, got %s", xerr.Code)
	}
}
