package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

type testApp struct {
	db       *gorm.DB
	users    *services.UserService
	sessions *services.SessionService
	auth     *middleware.Authenticator
	host     *recordingHost
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := services.NewUserService(db)
	sessions := services.NewSessionService(rdb, "handler-secret")
	return &testApp{
		db:       db,
		users:    users,
		sessions: sessions,
		auth:     middleware.NewAuthenticator(sessions, users),
		host:     &recordingHost{},
	}
}

// login registers an account and returns a bearer token for it.
func (a *testApp) login(t *testing.T, email string, role models.Role) (*models.User, string) {
	t.Helper()
	ctx := context.Background()
	user, err := a.users.Register(ctx, services.RegisterInput{Email: email, Password: "kebun-subur-1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if role == models.RoleAdmin {
		if err := a.db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
			t.Fatalf("promote: %v", err)
		}
		user.Role = models.RoleAdmin
	}
	token, _, err := a.sessions.Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return user, token
}

// userRouter mounts routes behind RequireUser.
func (a *testApp) userRouter(mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(a.auth.RequireUser)
		mount(r)
	})
	return r
}

type recordingHost struct {
	mu        sync.Mutex
	n         int
	destroyed []string
}

func (h *recordingHost) Upload(ctx context.Context, file io.Reader, opts services.UploadOptions) (*services.UploadedAsset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := io.Copy(io.Discard, file); err != nil {
		return nil, err
	}
	h.n++
	key := fmt.Sprintf("%s/%d", opts.Folder, h.n)
	return &services.UploadedAsset{URL: "https://cdn.example.test/" + key, FileKey: key}, nil
}

func (h *recordingHost) Destroy(ctx context.Context, fileKey string, kind models.MediaType) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = append(h.destroyed, fileKey)
	return nil
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files []formFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="%s"`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &buf
}

func decodeBody(t *testing.T, body io.Reader, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
