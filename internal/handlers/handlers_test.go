package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Friday 2030-03-01 09:00 UTC. 2030-03-04 is a Monday.
var testNow = time.Date(2030, time.March, 1, 9, 0, 0, 0, time.UTC)

type notification struct {
	patient string
	event   services.AppointmentEvent
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) NotifyAppointment(patient *models.User, _ *models.Appointment, event services.AppointmentEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{patient: patient.Email, event: event})
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []services.EmailMessage
	err  error
}

func (f *fakeEmail) Send(_ context.Context, msg services.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePictures struct {
	enabled bool
	err     error
	got     []byte
	ctype   string
}

func (f *fakePictures) Enabled() bool { return f.enabled }

func (f *fakePictures) Upload(_ context.Context, userID, contentType, ext string, _ int64, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.got, _ = io.ReadAll(body)
	f.ctype = contentType
	return "https://cdn.example/" + userID + ext, nil
}

type fakeIdentity map[string]*services.Identity

func (f fakeIdentity) Verify(_ context.Context, token string) (*services.Identity, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return nil, services.ErrIdentityToken
}

type testEnv struct {
	router   *gin.Engine
	store    *store.Memory
	jwt      *utils.JWTManager
	notifier *fakeNotifier
	email    *fakeEmail
	pictures *fakePictures
	handler  *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemory()
	cal, err := booking.NewCalendar(nil)
	require.NoError(t, err)
	clock := func() time.Time { return testNow }
	svc := booking.NewService(mem, booking.NewLocalLocker(time.Second),
		booking.NewRules(cal, time.UTC, clock), booking.WithClock(clock))
	jwtm, err := utils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)
	logger := logging.NewWithWriter(io.Discard, "error")

	env := &testEnv{
		store:    mem,
		jwt:      jwtm,
		notifier: &fakeNotifier{},
		email:    &fakeEmail{},
		pictures: &fakePictures{enabled: true},
	}
	identity := fakeIdentity{
		"google-token":     {UID: "fb-ada", Email: "ada@example.com", EmailVerified: true, Name: "Ada Lovelace", Provider: "google.com"},
		"new-token":        {UID: "fb-new", Email: "new@example.com", Name: "New Person", Provider: "password"},
		"unverified-token": {UID: "fb-other", Email: "ada@example.com", Name: "Not Ada", Provider: "password"},
		"phone-token":      {UID: "fb-phone-1", Provider: "phone"},
		"phone-token-2":    {UID: "fb-phone-2", Provider: "phone"},
	}
	env.handler = NewHandler(Handler{
		Store:     mem,
		Booking:   svc,
		Notifier:  env.notifier,
		Email:     env.email,
		Pictures:  env.pictures,
		Identity:  identity,
		JWT:       jwtm,
		Passwords: utils.NewPasswordHasher(bcrypt.MinCost),
		Logger:    logger,
	})

	r := gin.New()
	env.handler.RegisterRoutes(r, RouteOptions{
		Auth: middleware.NewAuthenticator(jwtm, identity, mem),
	})
	env.router = r
	return env
}

// addUser stores a user with password "password1" and returns a session token.
func (e *testEnv) addUser(t *testing.T, first, email string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{FirstName: first, LastName: "Test", Email: email, Password: string(hash), Role: role}
	if role == models.RoleDoctor {
		u.DoctorProfile = &models.DoctorProfile{Specialty: "Cardiologist", ConsultationFee: 150}
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	token, err := e.jwt.Generate(u.ID.Hex(), string(role))
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Reason  string          `json:"reason"`
	Token   string          `json:"token"`
	Count   int             `json:"count"`
	URL     string          `json:"url"`
	Data    json.RawMessage `json:"data"`
	User    json.RawMessage `json:"user"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
