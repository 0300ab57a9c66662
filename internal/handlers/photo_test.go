package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nshamaev/instakiller/internal/handlers"
	"github.com/nshamaev/instakiller/internal/middleware"
	"github.com/nshamaev/instakiller/internal/mock"
	"github.com/nshamaev/instakiller/internal/models"
	"github.com/nshamaev/instakiller/internal/photoquery"
	"github.com/nshamaev/instakiller/internal/services"

	"github.com/google/go-cmp/cmp"
)

type testAPI struct {
	router  http.Handler
	userSvc *services.UserService
	photos  *mock.MemoryPhotoStore
	blobs   *mock.MemoryBlobStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	users := &mock.UserStore{
		CreateFn:     func(context.Context, *models.User) error { return nil },
		CodeExistsFn: func(context.Context, string) (bool, error) { return false, nil },
	}
	userSvc := services.NewUserService(users, "test-secret")

	photos := mock.NewMemoryPhotoStore()
	blobs := mock.NewMemoryBlobStore()
	photoSvc := services.NewPhotoService(photos, blobs)

	photoHandler := handlers.NewPhotoHandler(photoSvc, photoquery.Defaults{PerPage: 10, MaxPerPage: 100})
	userHandler := handlers.NewUserHandler(userSvc)

	return &testAPI{
		router:  handlers.Routes(userHandler, photoHandler, middleware.Auth(userSvc)),
		userSvc: userSvc,
		photos:  photos,
		blobs:   blobs,
	}
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := a.userSvc.GenerateJWT(userID)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

func (a *testAPI) do(t *testing.T, method, target, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	wr := httptest.NewRecorder()
	a.router.ServeHTTP(wr, req)
	return wr
}

func pngData() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
}

func multipartBody(t *testing.T, name, borderColor string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("name", name); err != nil {
		t.Fatalf("write name field: %v", err)
	}
	if err := mw.WriteField("border_color", borderColor); err != nil {
		t.Fatalf("write border_color field: %v", err)
	}
	if withFile {
		fw, err := mw.CreateFormFile("photo", "test.png")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := fw.Write(pngData()); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func (a *testAPI) upload(t *testing.T, token, name string) int64 {
	t.Helper()
	body, contentType := multipartBody(t, name, "FFFFFF", true)
	wr := a.do(t, "POST", "/api/v1/photos/upload", token, body, contentType)
	if wr.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", wr.Code, wr.Body.String())
	}
	var res handlers.UploadResponse
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return res.ID
}

func TestUploadThenRetrieve(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	id := api.upload(t, token, "testname")
	if id == 0 {
		t.Fatal("expected a non-zero id")
	}

	wr := api.do(t, "GET", fmt.Sprintf("/api/v1/photos/%d", id), token, nil, "")
	if wr.Code != http.StatusOK {
		t.Fatalf("retrieve returned %d: %s", wr.Code, wr.Body.String())
	}
	var photo models.Photo
	if err := json.Unmarshal(wr.Body.Bytes(), &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	if photo.Name != "testname" {
		t.Fatalf("expected name 'testname', got %q", photo.Name)
	}
	if photo.BorderColor != "FFFFFF" {
		t.Fatalf("expected border color FFFFFF, got %q", photo.BorderColor)
	}
}

func TestUploadValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	cases := []struct {
		label     string
		name      string
		color     string
		withFile  bool
		expFields []string
	}{
		{"missing name", "", "FFFFFF", true, []string{"name"}},
		{"bad color", "testname", "chartreuse", true, []string{"border_color"}},
		{"missing file", "testname", "FFFFFF", false, []string{"photo"}},
	}
	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			body, contentType := multipartBody(t, c.name, c.color, c.withFile)
			wr := api.do(t, "POST", "/api/v1/photos/upload", token, body, contentType)
			if wr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", wr.Code, wr.Body.String())
			}
			var fields map[string]string
			if err := json.Unmarshal(wr.Body.Bytes(), &fields); err != nil {
				t.Fatalf("decode field errors: %v", err)
			}
			for _, field := range c.expFields {
				if fields[field] == "" {
					t.Fatalf("expected message for field %q, got %v", field, fields)
				}
			}
		})
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	api := newTestAPI(t)

	endpoints := []struct{ method, target string }{
		{"POST", "/api/v1/photos/upload"},
		{"GET", "/api/v1/photos"},
		{"GET", "/api/v1/photos/1"},
		{"PUT", "/api/v1/photos/1"},
		{"DELETE", "/api/v1/photos/1"},
	}
	for _, e := range endpoints {
		wr := api.do(t, e.method, e.target, "", nil, "")
		if wr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", e.method, e.target, wr.Code)
		}

		wr = api.do(t, e.method, e.target, "garbage-token", nil, "")
		if wr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad token: expected 401, got %d", e.method, e.target, wr.Code)
		}
	}
}

func TestListPaginatesWithConfiguredDefault(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	for i := 0; i < 15; i++ {
		api.seedPhoto(t, "user-a", fmt.Sprintf("photo %02d", i), time.Now().UTC())
	}

	wr := api.do(t, "GET", "/api/v1/photos", token, nil, "")
	if wr.Code != http.StatusOK {
		t.Fatalf("list returned %d: %s", wr.Code, wr.Body.String())
	}
	var res handlers.ListResponse
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if res.Count != 15 {
		t.Fatalf("expected count 15, got %d", res.Count)
	}
	if len(res.Results) != 10 {
		t.Fatalf("expected default page size 10, got %d", len(res.Results))
	}

	wr = api.do(t, "GET", "/api/v1/photos?page=2", token, nil, "")
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode second page: %v", err)
	}
	if len(res.Results) != 5 {
		t.Fatalf("expected 5 results on page 2, got %d", len(res.Results))
	}
}

func TestListSortsAndFilters(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	base := time.Date(2016, 4, 1, 12, 0, 0, 0, time.UTC)
	api.seedPhoto(t, "user-a", "cool", base.AddDate(0, 0, 0))
	api.seedPhoto(t, "user-a", "deep", base.AddDate(0, 0, 2))
	api.seedPhoto(t, "user-a", "aromatic", base.AddDate(0, 0, 1))

	wr := api.do(t, "GET", "/api/v1/photos?ordering=name", token, nil, "")
	var res handlers.ListResponse
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	got := []string{res.Results[0].Name, res.Results[1].Name, res.Results[2].Name}
	if diff := cmp.Diff([]string{"aromatic", "cool", "deep"}, got); diff != "" {
		t.Fatalf("unexpected name order (-want +got):\n%s", diff)
	}

	wr = api.do(t, "GET", "/api/v1/photos?ordering=created_at", token, nil, "")
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	got = []string{res.Results[0].Name, res.Results[1].Name, res.Results[2].Name}
	if diff := cmp.Diff([]string{"cool", "aromatic", "deep"}, got); diff != "" {
		t.Fatalf("unexpected chronological order (-want +got):\n%s", diff)
	}

	wr = api.do(t, "GET", "/api/v1/photos?created_at=2016-04-02", token, nil, "")
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if res.Count != 1 || res.Results[0].Name != "aromatic" {
		t.Fatalf("unexpected date filter result: %+v", res)
	}

	wr = api.do(t, "GET", "/api/v1/photos?search=oo", token, nil, "")
	if err := json.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if res.Count != 1 || res.Results[0].Name != "cool" {
		t.Fatalf("unexpected search result: %+v", res)
	}
}

func TestListXMLFormat(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")
	api.seedPhoto(t, "user-a", "testname", time.Now().UTC())

	wr := api.do(t, "GET", "/api/v1/photos?format=xml", token, nil, "")
	if wr.Code != http.StatusOK {
		t.Fatalf("list returned %d: %s", wr.Code, wr.Body.String())
	}
	if ct := wr.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("expected application/xml, got %q", ct)
	}

	var res handlers.ListResponse
	if err := xml.Unmarshal(wr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode xml: %v", err)
	}
	if res.Count != 1 || len(res.Results) != 1 || res.Results[0].Name != "testname" {
		t.Fatalf("unexpected xml payload: %+v", res)
	}
}

func TestRetrieveScopedToOwner(t *testing.T) {
	api := newTestAPI(t)
	owner := api.token(t, "user-a")
	other := api.token(t, "user-b")

	id := api.upload(t, owner, "private")

	wr := api.do(t, "GET", fmt.Sprintf("/api/v1/photos/%d", id), other, nil, "")
	if wr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign photo, got %d", wr.Code)
	}

	wr = api.do(t, "GET", "/api/v1/photos/99999", owner, nil, "")
	if wr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", wr.Code)
	}
}

func TestUpdatePhoto(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	id := api.upload(t, token, "testname")

	// Extra fields in the body are ignored, not applied.
	body := bytes.NewBufferString(`{
		"name": "newphotoname",
		"border_color": "AAAAAA",
		"photo": "photos/evil/override.png",
		"created_at": "1999-01-01T00:00:00Z"
	}`)
	wr := api.do(t, "PUT", fmt.Sprintf("/api/v1/photos/%d", id), token, body, "application/json")
	if wr.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", wr.Code, wr.Body.String())
	}

	var photo models.Photo
	if err := json.Unmarshal(wr.Body.Bytes(), &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	if photo.Name != "newphotoname" || photo.BorderColor != "AAAAAA" {
		t.Fatalf("expected updated fields, got %q/%q", photo.Name, photo.BorderColor)
	}
	if strings.Contains(photo.FilePath, "evil") {
		t.Fatal("file path must not be client-controlled")
	}
	if photo.CreatedAt.Year() == 1999 {
		t.Fatal("created_at must not be client-controlled")
	}
}

func TestUpdateValidation(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	id := api.upload(t, token, "testname")

	body := bytes.NewBufferString(`{"name": "", "border_color": "XYZXYZ"}`)
	wr := api.do(t, "PUT", fmt.Sprintf("/api/v1/photos/%d", id), token, body, "application/json")
	if wr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", wr.Code, wr.Body.String())
	}

	var fields map[string]string
	if err := json.Unmarshal(wr.Body.Bytes(), &fields); err != nil {
		t.Fatalf("decode field errors: %v", err)
	}
	if fields["name"] == "" || fields["border_color"] == "" {
		t.Fatalf("expected name and border_color messages, got %v", fields)
	}
}

func TestDeletePhoto(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	id := api.upload(t, token, "testname")
	if api.blobs.Len() != 1 {
		t.Fatalf("expected 1 stored blob, got %d", api.blobs.Len())
	}

	wr := api.do(t, "DELETE", fmt.Sprintf("/api/v1/photos/%d", id), token, nil, "")
	if wr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", wr.Code, wr.Body.String())
	}
	if api.blobs.Len() != 0 {
		t.Fatal("expected blob removed with last referencing record")
	}

	wr = api.do(t, "GET", fmt.Sprintf("/api/v1/photos/%d", id), token, nil, "")
	if wr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", wr.Code)
	}

	// Deleting again is a not-found, never a server error.
	wr = api.do(t, "DELETE", fmt.Sprintf("/api/v1/photos/%d", id), token, nil, "")
	if wr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated delete, got %d", wr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "user-a")

	wr := api.do(t, "POST", "/api/v1/photos", token, nil, "")
	if wr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST on collection, got %d", wr.Code)
	}

	wr = api.do(t, "PATCH", "/api/v1/photos/1", token, nil, "")
	if wr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PATCH on detail, got %d", wr.Code)
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	api := newTestAPI(t)

	wr := api.do(t, "POST", "/api/v1/users", "", nil, "")
	if wr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", wr.Code, wr.Body.String())
	}

	var user models.User
	if err := json.Unmarshal(wr.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Token == "" {
		t.Fatal("expected a token in the response")
	}
	if _, err := api.userSvc.ValidateJWT(user.Token); err != nil {
		t.Fatalf("issued token should validate: %v", err)
	}
}

// seedPhoto inserts a record directly, bypassing the upload workflow so
// created_at can be forced for fixtures.
func (a *testAPI) seedPhoto(t *testing.T, ownerID, name string, createdAt time.Time) int64 {
	t.Helper()
	photo := &models.Photo{
		OwnerID:     ownerID,
		FilePath:    "photos/" + ownerID + "/" + name,
		Name:        name,
		BorderColor: "FFFFFF",
		CreatedAt:   createdAt,
	}
	if err := a.photos.Create(context.Background(), photo); err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	return photo.ID
}
