package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/logging"
	"github.com/me/tourtrack/pkg/model"
)

type fakeNavigator struct {
	mu        sync.Mutex
	current   string
	redirects []string
}

func (f *fakeNavigator) CurrentPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeNavigator) Redirect(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirects = append(f.redirects, path)
	f.current = path
}

type fakeNotifier struct {
	warnings []string
}

func (f *fakeNotifier) Warning(msg string) int {
	f.warnings = append(f.warnings, msg)
	return len(f.warnings)
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *credstore.MemoryStore) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	creds := credstore.NewMemoryStore()
	c := NewClient(DefaultConfig().WithBaseURL(ts.URL), creds, logging.Discard(), opts...)
	return c, creds
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestDo_AttachesTokenAndRequestID(t *testing.T) {
	var gotAuth, gotID string
	c, creds := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, []model.Tour{{ID: 1, Name: "Loop"}})
	}))
	ctx := context.Background()
	creds.Set(ctx, credstore.TokenKey, "abc")

	tours, err := c.ListTours(ctx, nil)
	if err != nil {
		t.Fatalf("ListTours: %v", err)
	}
	if len(tours) != 1 || tours[0].Name != "Loop" {
		t.Errorf("tours = %+v", tours)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer abc")
	}
	if gotID == "" {
		t.Error("missing request id header")
	}
}

func TestDo_NoTokenSendsNoAuthorization(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, model.TourTypes{Types: []string{"Bike"}})
	}))

	if _, err := c.TourTypes(context.Background()); err != nil {
		t.Fatalf("TourTypes: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestDo_UnauthorizedExpiresSession(t *testing.T) {
	nav := &fakeNavigator{current: "/tours"}
	notifier := &fakeNotifier{}
	c, creds := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
	}), WithNavigator(nav), WithNotifier(notifier))
	ctx := context.Background()
	creds.Set(ctx, credstore.TokenKey, "stale")

	expired := 0
	c.OnExpired(func() {
		expired++
		if _, err := creds.Get(ctx, credstore.TokenKey); !errors.Is(err, credstore.ErrNotFound) {
			t.Errorf("token still stored when listener runs: %v", err)
		}
	})

	_, err := c.ListTours(ctx, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindAuthExpired {
		t.Errorf("kind = %v, want %v", KindOf(err), KindAuthExpired)
	}
	if MessageOf(err) != MsgSessionExpired {
		t.Errorf("message = %q", MessageOf(err))
	}
	if StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("status = %d", StatusOf(err))
	}
	if expired != 1 {
		t.Errorf("expiry listeners ran %d times, want 1", expired)
	}
	if len(notifier.warnings) != 1 || notifier.warnings[0] != MsgSessionExpired {
		t.Errorf("warnings = %v", notifier.warnings)
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != "/login" {
		t.Errorf("redirects = %v", nav.redirects)
	}
}

func TestDo_UnauthorizedWithTruncatedBody(t *testing.T) {
	nav := &fakeNavigator{current: "/tours"}
	c, creds := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		buf.WriteString("HTTP/1.1 401 Unauthorized\r\nContent-Type: application/json\r\nContent-Length: 500\r\n\r\n{\"detail\":")
		buf.Flush()
	}), WithNavigator(nav))
	ctx := context.Background()
	creds.Set(ctx, credstore.TokenKey, "stale")

	_, err := c.ListTours(ctx, nil)
	if KindOf(err) != KindAuthExpired {
		t.Fatalf("kind = %v (err %v), want %v", KindOf(err), err, KindAuthExpired)
	}
	if MessageOf(err) != MsgSessionExpired {
		t.Errorf("message = %q", MessageOf(err))
	}
	if _, err := creds.Get(ctx, credstore.TokenKey); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("token still stored: %v", err)
	}
	if len(nav.redirects) != 1 || nav.redirects[0] != "/login" {
		t.Errorf("redirects = %v", nav.redirects)
	}
}

func TestDo_UnauthorizedOnLoginViewDoesNotRedirect(t *testing.T) {
	nav := &fakeNavigator{current: "/login"}
	notifier := &fakeNotifier{}
	c, creds := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), WithNavigator(nav), WithNotifier(notifier))
	ctx := context.Background()
	creds.Set(ctx, credstore.TokenKey, "stale")

	_, err := c.Me(ctx)
	if KindOf(err) != KindAuthExpired {
		t.Fatalf("kind = %v, want %v", KindOf(err), KindAuthExpired)
	}
	if _, err := creds.Get(ctx, credstore.TokenKey); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("token not cleared: %v", err)
	}
	if len(notifier.warnings) != 0 {
		t.Errorf("warnings = %v, want none", notifier.warnings)
	}
	if len(nav.redirects) != 0 {
		t.Errorf("redirects = %v, want none", nav.redirects)
	}
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"not found detail", http.StatusNotFound, `{"detail":"Tour not found"}`, KindNotFound, "Tour not found"},
		{"forbidden", http.StatusForbidden, `{"detail":"Not enough permissions"}`, KindForbidden, "Not enough permissions"},
		{"bad request", http.StatusBadRequest, `{"detail":"Username already registered"}`, KindValidation, "Username already registered"},
		{"validation list", http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"}]}`,
			KindValidation, "value is not a valid email address"},
		{"server error without body", http.StatusInternalServerError, ``, KindServer, MsgGeneric},
		{"server error html", http.StatusBadGateway, `<html>bad gateway</html>`, KindServer, MsgGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			_, err := c.GetTour(context.Background(), 7)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("kind = %v, want %v", got, tt.kind)
			}
			if got := MessageOf(err); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
			if got := StatusOf(err); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestDo_NetworkUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewClient(DefaultConfig().WithBaseURL(url), credstore.NewMemoryStore(), logging.Discard())
	_, err := c.ListTours(context.Background(), nil)
	if KindOf(err) != KindNetwork {
		t.Fatalf("kind = %v, want %v (err %v)", KindOf(err), KindNetwork, err)
	}
	if MessageOf(err) != MsgNoConnection {
		t.Errorf("message = %q", MessageOf(err))
	}
}

func TestDo_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	cfg := DefaultConfig().WithBaseURL(ts.URL).WithTimeout(50 * time.Millisecond)
	c := NewClient(cfg, credstore.NewMemoryStore(), logging.Discard())
	_, err := c.TourSummary(context.Background(), nil)
	if KindOf(err) != KindTimeout {
		t.Fatalf("kind = %v, want %v (err %v)", KindOf(err), KindTimeout, err)
	}
	if MessageOf(err) != MsgTimeout {
		t.Errorf("message = %q", MessageOf(err))
	}
}

func TestDo_ContextDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	c := NewClient(DefaultConfig().WithBaseURL(ts.URL), credstore.NewMemoryStore(), logging.Discard())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.ListTours(ctx, nil); KindOf(err) != KindTimeout {
		t.Fatalf("kind = %v, want %v (err %v)", KindOf(err), KindTimeout, err)
	}
}

func TestDo_UndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	_, err := c.ListUsers(context.Background())
	if KindOf(err) != KindUnknown || MessageOf(err) != MsgUnknown {
		t.Errorf("kind=%v message=%q", KindOf(err), MessageOf(err))
	}
}

func TestNearbyTours_SendsQuery(t *testing.T) {
	var got model.NearbyQuery
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tours/nearby" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, []model.Tour{})
	}))

	q := model.NearbyQuery{Latitude: 48.1, Longitude: 11.5, RadiusKm: 10}
	if _, err := c.NearbyTours(context.Background(), q); err != nil {
		t.Fatalf("NearbyTours: %v", err)
	}
	if got != q {
		t.Errorf("body = %+v, want %+v", got, q)
	}
}

func TestUploadTours_Multipart(t *testing.T) {
	var names []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tours/upload/batch" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for _, fh := range r.MultipartForm.File["files"] {
			names = append(names, fh.Filename)
		}
		writeJSON(w, http.StatusOK, model.UploadResult{Imported: len(names)})
	}))

	res, err := c.UploadTours(context.Background(), []FilePart{
		{Name: "a.gpx", Reader: strings.NewReader("<gpx/>")},
		{Name: "b.gpx", Reader: strings.NewReader("<gpx/>")},
	})
	if err != nil {
		t.Fatalf("UploadTours: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("imported = %d, want 2", res.Imported)
	}
	if strings.Join(names, ",") != "a.gpx,b.gpx" {
		t.Errorf("files = %v", names)
	}
}

func TestUpdateUserStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/users/alice/status" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body model.StatusUpdate
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, model.User{Username: "alice", Status: body.Status})
	}))

	u, err := c.UpdateUserStatus(context.Background(), "alice", model.StatusActive)
	if err != nil {
		t.Fatalf("UpdateUserStatus: %v", err)
	}
	if u.Status != model.StatusActive {
		t.Errorf("status = %q", u.Status)
	}
}

func TestToken_PasswordGrant(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "pw" {
			t.Errorf("form = %v", r.PostForm)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("token request carried Authorization header")
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}))

	tok, err := c.Token(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("token = %q", tok)
	}
}

func TestToken_RejectedDoesNotExpireSession(t *testing.T) {
	nav := &fakeNavigator{current: "/login"}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Account pending approval"})
	}), WithNavigator(nav))
	expired := false
	c.OnExpired(func() { expired = true })

	_, err := c.Token(context.Background(), "bob", "pw")
	if KindOf(err) != KindForbidden {
		t.Fatalf("kind = %v, want %v (err %v)", KindOf(err), KindForbidden, err)
	}
	if MessageOf(err) != "Account pending approval" {
		t.Errorf("message = %q", MessageOf(err))
	}
	if expired {
		t.Error("token exchange failure must not run expiry listeners")
	}
}

func TestMessageOf_ForeignError(t *testing.T) {
	if got := MessageOf(errors.New("boom")); got != MsgUnknown {
		t.Errorf("MessageOf = %q, want %q", got, MsgUnknown)
	}
	if got := MessageOf(nil); got != "" {
		t.Errorf("MessageOf(nil) = %q", got)
	}
}
