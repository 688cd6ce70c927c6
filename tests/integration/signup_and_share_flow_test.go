package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linkhive/backend/internal/access"
	"github.com/linkhive/backend/internal/auth"
	"github.com/linkhive/backend/internal/category"
	"github.com/linkhive/backend/internal/database"
	"github.com/linkhive/backend/internal/identity"
	"github.com/linkhive/backend/internal/links"
	"github.com/linkhive/backend/internal/server"
	"github.com/linkhive/backend/internal/shares"
)

const jsonContentType = "application/json"

type apiClient struct {
	baseURL string
	token   string
}

func (c *apiClient) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	request, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	request.Header.Set("Content-Type", jsonContentType)
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()
	var buffer bytes.Buffer
	if _, err := buffer.ReadFrom(response.Body); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return response, buffer.Bytes()
}

func decodeData(t *testing.T, body []byte, target any) {
	t.Helper()
	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("failed to decode envelope: %v (body %s)", err, body)
	}
	if err := json.Unmarshal(payload.Data, target); err != nil {
		t.Fatalf("failed to decode data: %v (body %s)", err, body)
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "integration.db"), nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		AccessSecret:    []byte("integration-access-secret"),
		RefreshSecret:   []byte("integration-refresh-secret"),
		Issuer:          "linkhive-api",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 2 * time.Hour,
	})

	identityService, err := identity.NewService(identity.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build identity service: %v", err)
	}
	categoryRegistry, err := category.NewRegistry(db)
	if err != nil {
		t.Fatalf("failed to build category registry: %v", err)
	}
	shareService, err := shares.NewService(shares.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build share service: %v", err)
	}
	evaluator, err := access.NewEvaluator(shareService)
	if err != nil {
		t.Fatalf("failed to build evaluator: %v", err)
	}
	linkService, err := links.NewService(links.ServiceConfig{
		Database:   db,
		Evaluator:  evaluator,
		Categories: categoryRegistry,
		Shared:     shareService,
	})
	if err != nil {
		t.Fatalf("failed to build link service: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Identities: identityService,
		Categories: categoryRegistry,
		Links:      linkService,
		Shares:     shareService,
		Tokens:     tokens,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	testServer := httptest.NewServer(handler)
	t.Cleanup(testServer.Close)
	return testServer
}

func signUpAndIn(t *testing.T, baseURL, email, password string) *apiClient {
	t.Helper()
	client := &apiClient{baseURL: baseURL}
	response, body := client.do(t, http.MethodPost, "/auth/sign-up", map[string]string{
		"email": email, "password": password,
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("sign-up for %s failed: %d %s", email, response.StatusCode, body)
	}
	response, body = client.do(t, http.MethodPost, "/auth/sign-in", map[string]string{
		"email": email, "password": password,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("sign-in for %s failed: %d %s", email, response.StatusCode, body)
	}
	var session struct {
		AccessToken string `json:"accessToken"`
	}
	decodeData(t, body, &session)
	client.token = session.AccessToken
	return client
}

type linkRecord struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Name         string `json:"name"`
	URL          string `json:"url"`
}

type userRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type shareRecord struct {
	ID           string `json:"id"`
	GranteeEmail string `json:"grantee_email"`
	IsWritable   bool   `json:"is_writable"`
}

func TestSignUpShareAndCollaborateFlow(t *testing.T) {
	testServer := startServer(t)

	owner := signUpAndIn(t, testServer.URL, "owner@example.com", "owner-password")
	grantee := signUpAndIn(t, testServer.URL, "grantee@example.com", "grantee-password")
	outsider := signUpAndIn(t, testServer.URL, "outsider@example.com", "outsider-password")

	// The owner discovers the grantee through the user listing.
	response, body := owner.do(t, http.MethodGet, "/users", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("user listing failed: %d", response.StatusCode)
	}
	var others []userRecord
	decodeData(t, body, &others)
	var granteeID string
	for _, user := range others {
		if user.Email == "grantee@example.com" {
			granteeID = user.ID
		}
	}
	if granteeID == "" {
		t.Fatalf("grantee not present in user listing: %#v", others)
	}

	response, body = owner.do(t, http.MethodPost, "/link", map[string]string{
		"categoryId": "cat-reading",
		"name":       "Effective Go",
		"url":        "https://go.dev/doc/effective_go",
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("link creation failed: %d %s", response.StatusCode, body)
	}
	var created linkRecord
	decodeData(t, body, &created)
	if created.CategoryName != "Reading" {
		t.Fatalf("expected category name snapshot, got %q", created.CategoryName)
	}

	// Read-only grant: the grantee sees the link but cannot modify it.
	response, body = owner.do(t, http.MethodPost, "/share", map[string]any{
		"linkId": created.ID, "userId": granteeID, "isWritable": false,
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("share creation failed: %d %s", response.StatusCode, body)
	}
	var grant shareRecord
	decodeData(t, body, &grant)
	if grant.GranteeEmail != "grantee@example.com" {
		t.Fatalf("expected grantee email snapshot, got %q", grant.GranteeEmail)
	}

	response, body = grantee.do(t, http.MethodGet, "/links?mode=shared-readonly", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("shared listing failed: %d", response.StatusCode)
	}
	var visible []linkRecord
	decodeData(t, body, &visible)
	if len(visible) != 1 || visible[0].ID != created.ID {
		t.Fatalf("expected the shared link in the read-only scope, got %#v", visible)
	}

	response, _ = grantee.do(t, http.MethodPut, "/link/"+created.ID, map[string]string{
		"categoryId": created.CategoryID,
		"name":       "Hijacked",
		"url":        created.URL,
	})
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("read-only grantee must not update, got %d", response.StatusCode)
	}

	// Upgrading the grant to writable moves the link between scopes and
	// admits the grantee's edits.
	response, _ = owner.do(t, http.MethodPut, "/share/"+grant.ID, map[string]any{"isWritable": true})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("share upgrade failed: %d", response.StatusCode)
	}

	response, body = grantee.do(t, http.MethodGet, "/links?mode=shared-readonly", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("shared listing failed: %d", response.StatusCode)
	}
	decodeData(t, body, &visible)
	if len(visible) != 0 {
		t.Fatalf("upgraded grant must leave the read-only scope, got %#v", visible)
	}

	response, body = grantee.do(t, http.MethodGet, "/links?mode=shared-writable", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("shared listing failed: %d", response.StatusCode)
	}
	decodeData(t, body, &visible)
	if len(visible) != 1 {
		t.Fatalf("expected the link in the writable scope, got %#v", visible)
	}

	response, body = grantee.do(t, http.MethodPut, "/link/"+created.ID, map[string]string{
		"categoryId": "cat-work",
		"name":       "Effective Go (team copy)",
		"url":        created.URL,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("writable grantee update failed: %d %s", response.StatusCode, body)
	}
	var updated linkRecord
	decodeData(t, body, &updated)
	if updated.CategoryName != "Work" {
		t.Fatalf("expected category snapshot to follow the move, got %q", updated.CategoryName)
	}

	// A writable grant still does not confer deletion.
	response, _ = grantee.do(t, http.MethodDelete, "/link/"+created.ID, nil)
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("grantee must not delete, got %d", response.StatusCode)
	}

	// The outsider has no grant and sees nothing in any scope.
	for _, mode := range []string{"own", "shared-readonly", "shared-writable"} {
		response, body = outsider.do(t, http.MethodGet, fmt.Sprintf("/links?mode=%s", mode), nil)
		if response.StatusCode != http.StatusOK {
			t.Fatalf("outsider listing failed: %d", response.StatusCode)
		}
		decodeData(t, body, &visible)
		if len(visible) != 0 {
			t.Fatalf("outsider must see nothing in %s, got %#v", mode, visible)
		}
	}

	// Deleting the link removes its grants with it.
	response, _ = owner.do(t, http.MethodDelete, "/link/"+created.ID, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("owner delete failed: %d", response.StatusCode)
	}

	response, body = grantee.do(t, http.MethodGet, "/links?mode=shared-writable", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("shared listing failed: %d", response.StatusCode)
	}
	decodeData(t, body, &visible)
	if len(visible) != 0 {
		t.Fatalf("deleted link must disappear from shared scopes, got %#v", visible)
	}
}
