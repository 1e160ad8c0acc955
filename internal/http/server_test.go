package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"scango/app/internal/admin"
	"scango/app/internal/auth"
	"scango/app/internal/curator"
	"scango/app/internal/dashboard"
	"scango/app/internal/db"
	"scango/app/internal/demo"
	"scango/app/internal/feedback"
	applog "scango/app/internal/log"
	"scango/app/internal/tts"
	"scango/app/internal/upload"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct-horse"
	testAdminKey      = "legacy-admin-key"
	testOrigin        = "https://app.example.com"
)

func TestAdminRoutesRejectMissingToken(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	for _, target := range []string{"/api/feedback", "/api/curator/proposals", "/api/dashboard", "/api/auth/me"} {
		rec := env.do(t, stdhttp.MethodGet, target, "", nil, nil)
		if rec.Code != stdhttp.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401, got %d: %s", target, rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["success"] != false || body["error"] != "Not authorized, token missing" {
			t.Fatalf("GET %s: unexpected envelope %v", target, body)
		}
	}

	rec := env.do(t, stdhttp.MethodGet, "/api/feedback", "", nil, map[string]string{"Authorization": "Bearer forged"})
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", rec.Code)
	}

	if calls := env.feedbackRepo.calls.Load(); calls != 0 {
		t.Fatalf("expected store to be untouched by rejected requests, got %d calls", calls)
	}
}

func TestLoginAndCurrentAdmin(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodPost, "/api/auth/login", "application/json",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong-password"}`), nil)
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	token := env.login(t)

	rec = env.do(t, stdhttp.MethodGet, "/api/auth/me", "", nil, bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["email"] != testAdminEmail {
		t.Fatalf("unexpected identity %v", data)
	}
	if _, leaked := data["password"]; leaked {
		t.Fatalf("identity must not expose the password hash")
	}
}

func TestDemoLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	token := env.login(t)

	payload := `{"title":"Golden Mask","slug":"Mask-Room","type":"museum","curatorKey":"k1","content":"A mask that is well over three thousand years old."}`
	rec := env.do(t, stdhttp.MethodPost, "/api/demos", "application/json", strings.NewReader(payload), bearer(token))
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["data"].(map[string]any)
	if created["slug"] != "mask-room" {
		t.Fatalf("expected normalized slug, got %v", created["slug"])
	}
	if qr, _ := created["qrCodeUrl"].(string); !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Fatalf("expected QR data URL, got %q", qr)
	}

	rec = env.do(t, stdhttp.MethodPost, "/api/demos", "application/json",
		strings.NewReader(strings.Replace(payload, "Mask-Room", "MASK-ROOM", 1)), bearer(token))
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected 409 for case-duplicate slug, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/demos/MASK-ROOM", "", nil, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected public fetch to succeed, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodPut, "/api/demos/mask-room", "application/json",
		strings.NewReader(`{"title":"Golden Mask Revisited","unknown":"ignored"}`), bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected update to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if title := decodeBody(t, rec)["data"].(map[string]any)["title"]; title != "Golden Mask Revisited" {
		t.Fatalf("unexpected title after update %v", title)
	}

	rec = env.do(t, stdhttp.MethodPost, "/api/demos/mask-room/audio", "", nil, bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected audio generation to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	audioURL, _ := decodeBody(t, rec)["data"].(map[string]any)["audioUrl"].(string)
	if !strings.HasPrefix(audioURL, "/uploads/audio/") {
		t.Fatalf("unexpected audio url %q", audioURL)
	}

	rec = env.do(t, stdhttp.MethodGet, audioURL, "", nil, nil)
	if rec.Code != stdhttp.StatusOK || rec.Body.String() != "ID3-audio" {
		t.Fatalf("expected stored audio to be served, got %d %q", rec.Code, rec.Body.String())
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/demos", "", nil, nil)
	if count := decodeBody(t, rec)["count"]; count != float64(1) {
		t.Fatalf("expected one listed page, got %v", count)
	}

	rec = env.do(t, stdhttp.MethodDelete, "/api/demos/mask-room", "", nil, bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected delete to succeed, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/demos/mask-room", "", nil, nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateDemoMultipartWithImage(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	token := env.login(t)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	for field, value := range map[string]string{
		"title":      "Apple Juice",
		"slug":       "apple-juice",
		"type":       "product",
		"curatorKey": "k2",
		"content":    "Pressed from organic apples with nothing added.",
	} {
		if err := writer.WriteField(field, value); err != nil {
			t.Fatalf("writing form field failed: %v", err)
		}
	}
	part, err := writer.CreateFormFile("productImage", "juice.png")
	if err != nil {
		t.Fatalf("creating form file failed: %v", err)
	}
	if _, err := part.Write(samplePNG(t)); err != nil {
		t.Fatalf("writing image failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}

	rec := env.do(t, stdhttp.MethodPost, "/api/demos", writer.FormDataContentType(), &form, bearer(token))
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	imageURL, _ := decodeBody(t, rec)["data"].(map[string]any)["productImage"].(string)
	if !strings.HasPrefix(imageURL, "/uploads/demo/") {
		t.Fatalf("unexpected product image %q", imageURL)
	}

	rec = env.do(t, stdhttp.MethodGet, imageURL, "", nil, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected uploaded image to be served, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodGet, "/uploads/demo/", "", nil, nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected directory listing to be hidden, got %d", rec.Code)
	}
}

func TestFeedbackSubmission(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodPost, "/api/feedback", "application/json",
		strings.NewReader(`{"name":"Ada","email":"not-an-email","businessInterest":"Museums","expectedPrice":"$10"}`), nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["error"]; msg != "Please enter a valid email address." {
		t.Fatalf("unexpected error message %v", msg)
	}

	rec = env.do(t, stdhttp.MethodPost, "/api/feedback", "application/json",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","businessInterest":"Museums","expectedPrice":"$10"}`), nil)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Thank you for your feedback!" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	receipt := body["data"].(map[string]any)
	if receipt["status"] != "new" {
		t.Fatalf("expected status new, got %v", receipt["status"])
	}

	token := env.login(t)
	rec = env.do(t, stdhttp.MethodGet, "/api/feedback", "", nil, bearer(token))
	if count := decodeBody(t, rec)["count"]; count != float64(1) {
		t.Fatalf("expected exactly the valid submission to be stored, got %v", count)
	}

	rec = env.do(t, stdhttp.MethodPatch, "/api/feedback/"+receipt["id"].(string)+"/status", "application/json",
		strings.NewReader(`{"status":"contacted"}`), bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status update to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFeedbackStatusValidatedBeforeLookup(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	token := env.login(t)

	rec := env.do(t, stdhttp.MethodPatch, "/api/feedback/does-not-exist/status", "application/json",
		strings.NewReader(`{"status":"archived"}`), bearer(token))
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodPatch, "/api/feedback/does-not-exist/status", "application/json",
		strings.NewReader(`{"status":"reviewed"}`), bearer(token))
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestCuratorProposals(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodPost, "/api/curator/propose/curator123", "application/json",
		strings.NewReader(`{"demoSlug":"museum","proposedChanges":"too short"}`), nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for nine characters, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodPost, "/api/curator/propose/curator123", "application/json",
		strings.NewReader(`{"demoSlug":"museum","proposedChanges":"ten chars!"}`), nil)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected 201 for ten characters, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	rec = env.do(t, stdhttp.MethodPost, "/api/curator/propose/curator123", "application/json",
		strings.NewReader(`{"demoSlug":"MUSEUM","proposedChanges":"another attempt"}`), nil)
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("expected 409 for a second proposal, got %d", rec.Code)
	}

	token := env.login(t)
	rec = env.do(t, stdhttp.MethodPatch, "/api/curator/proposals/"+id, "application/json",
		strings.NewReader(`{"status":"rejected"}`), bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected status update to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decodeBody(t, rec)["message"]; msg != `Proposal marked as "rejected".` {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestDashboardAndLegacyAdminRoutes(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	token := env.login(t)

	env.do(t, stdhttp.MethodPost, "/api/feedback", "application/json",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","businessInterest":"Museums","expectedPrice":"$10"}`), nil)
	env.do(t, stdhttp.MethodPost, "/api/curator/propose/k", "application/json",
		strings.NewReader(`{"demoSlug":"museum","proposedChanges":"please add more photos"}`), nil)

	rec := env.do(t, stdhttp.MethodGet, "/api/dashboard", "", nil, bearer(token))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	stats := decodeBody(t, rec)["data"].(map[string]any)
	want := map[string]float64{"demos": 0, "feedbacks": 1, "proposals": 1, "admins": 1}
	for key, value := range want {
		if stats[key] != value {
			t.Fatalf("expected %s=%v, got %v", key, value, stats[key])
		}
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/admin/dashboard", "", nil, bearer(token))
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected bearer token to be refused on legacy route, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/admin/feedback", "", nil, map[string]string{"X-Admin-Key": "wrong"})
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong admin key, got %d", rec.Code)
	}

	for _, target := range []string{"/api/admin/dashboard", "/api/admin/feedback", "/api/admin/proposals"} {
		rec = env.do(t, stdhttp.MethodGet, target, "", nil, map[string]string{"X-Admin-Key": testAdminKey})
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestTTSStreamsAndRateLimits(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodGet, "/api/tts?text=hello&lang=de", "", nil, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != tts.ContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "ID3-audio" {
		t.Fatalf("unexpected audio body %q", rec.Body.String())
	}
	if env.speech.lastLang.Load() != "de" {
		t.Fatalf("expected language to reach the provider")
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/tts?text="+strings.Repeat("a", tts.MaxStreamRunes+1), "", nil, nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for overlong text, got %d", rec.Code)
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/tts?text=hello", "", nil, nil)
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected 429 once the burst is spent, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestTTSRateLimitIgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	for i := 1; i <= 2; i++ {
		headers := map[string]string{"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i)}
		if rec := env.do(t, stdhttp.MethodGet, "/api/tts?text=hello", "", nil, headers); rec.Code != stdhttp.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	headers := map[string]string{"X-Forwarded-For": "10.0.0.3", "X-Real-IP": "10.0.0.4"}
	rec := env.do(t, stdhttp.MethodGet, "/api/tts?text=hello", "", nil, headers)
	if rec.Code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected rotating forwarded addresses to share the peer bucket, got %d", rec.Code)
	}
}

func TestTTSRateLimitHonoursTrustedProxy(t *testing.T) {
	t.Parallel()

	env := newTestServer(t, func(opts *Options) {
		opts.TrustedProxies = []string{"192.0.2.0/24"}
	})

	request := func(forwardedFor string) int {
		headers := map[string]string{"X-Forwarded-For": forwardedFor}
		return env.do(t, stdhttp.MethodGet, "/api/tts?text=hello", "", nil, headers).Code
	}

	for i := 0; i < 2; i++ {
		if code := request("198.51.100.7"); code != stdhttp.StatusOK {
			t.Fatalf("expected 200 within the burst, got %d", code)
		}
	}
	if code := request("198.51.100.8"); code != stdhttp.StatusOK {
		t.Fatalf("expected a second client behind the proxy to get its own bucket, got %d", code)
	}
	if code := request("203.0.113.9, 198.51.100.7"); code != stdhttp.StatusTooManyRequests {
		t.Fatalf("expected a spoofed leading hop to be ignored, got %d", code)
	}
}

func TestNewServerRejectsInvalidTrustedProxy(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	opts := env.opts
	opts.TrustedProxies = []string{"not-a-network"}

	if _, err := NewServer(opts); err == nil {
		t.Fatalf("expected invalid trusted proxy to be rejected")
	}
}

func TestTTSUpstreamFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.speech.fail.Store(true)

	rec := env.do(t, stdhttp.MethodGet, "/api/tts?text=hello", "", nil, nil)
	if rec.Code != stdhttp.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["error"]; msg != "Failed to fetch audio" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestQRCodeRoute(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodGet, "/api/qr?text=https://example.com&size=128", "", nil, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected a PNG body")
	}

	rec = env.do(t, stdhttp.MethodGet, "/api/qr?text=%20%20", "", nil, nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}
}

func TestDemoPreviewPage(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	token := env.login(t)

	payload := `{"title":"Breathing","slug":"breathe","type":"health","curatorKey":"k3","content":"Inhale for **four** seconds, then exhale slowly."}`
	if rec := env.do(t, stdhttp.MethodPost, "/api/demos", "application/json", strings.NewReader(payload), bearer(token)); rec.Code != stdhttp.StatusCreated {
		t.Fatalf("expected create to succeed, got %d", rec.Code)
	}

	rec := env.do(t, stdhttp.MethodGet, "/demo/breathe", "", nil, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html content type, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "<strong>four</strong>") {
		t.Fatalf("expected rendered markdown in preview")
	}

	rec = env.do(t, stdhttp.MethodGet, "/demo/missing", "", nil, nil)
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "does not exist") {
		t.Fatalf("expected not found page, got %q", rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodGet, "/healthz", "", nil, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["database"] != "ok" || body["speech"] != "stub" {
		t.Fatalf("unexpected health body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	headers := map[string]string{"Origin": testOrigin, "Access-Control-Request-Method": "POST"}
	rec := env.do(t, stdhttp.MethodOptions, "/api/feedback", "", nil, headers)
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	headers["Origin"] = "https://evil.example.com"
	rec = env.do(t, stdhttp.MethodOptions, "/api/feedback", "", nil, headers)
	if rec.Code != stdhttp.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}

func TestSchemaViolationsUseEnvelope(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	rec := env.do(t, stdhttp.MethodPost, "/api/feedback", "application/json", strings.NewReader(`{"name":42}`), nil)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body)
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Fatalf("expected an error message, got %v", body)
	}
}

func TestResponsesOmitSchemaLink(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	token := env.login(t)

	responses := map[string]*httptest.ResponseRecorder{
		"success": env.do(t, stdhttp.MethodGet, "/api/auth/me", "", nil, bearer(token)),
		"missing": env.do(t, stdhttp.MethodGet, "/api/demos/no-such-page", "", nil, nil),
		"invalid": env.do(t, stdhttp.MethodPost, "/api/feedback", "application/json", strings.NewReader(`{"name":42}`), nil),
	}
	for name, rec := range responses {
		body := decodeBody(t, rec)
		if _, ok := body["$schema"]; ok {
			t.Errorf("%s: unexpected $schema field in %v", name, body)
		}
		if link := rec.Header().Get("Link"); strings.Contains(link, "describedby") {
			t.Errorf("%s: unexpected schema link header %q", name, link)
		}
	}
}

type testServer struct {
	server       *Server
	opts         Options
	feedbackRepo *countingFeedbackRepository
	speech       *stubProvider
}

func newTestServer(t *testing.T, configure ...func(*Options)) *testServer {
	t.Helper()

	ctx := context.Background()
	logger := applog.Discard()
	dir := t.TempDir()

	conn, err := db.Open(db.Options{Path: filepath.Join(dir, "scango.db"), Logger: logger})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })

	for _, migrate := range []func(context.Context) error{
		func(ctx context.Context) error { return admin.Migrate(ctx, conn, logger) },
		func(ctx context.Context) error { return demo.Migrate(ctx, conn, logger) },
		func(ctx context.Context) error { return feedback.Migrate(ctx, conn, logger) },
		func(ctx context.Context) error { return curator.Migrate(ctx, conn, logger) },
	} {
		if err := migrate(ctx); err != nil {
			t.Fatalf("migration failed: %v", err)
		}
	}

	admins, err := admin.NewRepository(conn, logger)
	requireNoError(t, err)
	demos, err := demo.NewRepository(conn, logger)
	requireNoError(t, err)
	feedbacks, err := feedback.NewRepository(conn, logger)
	requireNoError(t, err)
	proposals, err := curator.NewRepository(conn, logger)
	requireNoError(t, err)

	_, err = admin.Seed(ctx, admins, testAdminEmail, testAdminPassword)
	requireNoError(t, err)

	tokens, err := auth.NewTokens("test-signing-secret", time.Hour)
	requireNoError(t, err)
	authService, err := auth.NewService(admins, tokens, logger)
	requireNoError(t, err)
	bearerGate, err := auth.NewBearerAuthorizer(tokens, admins)
	requireNoError(t, err)

	uploadDir := filepath.Join(dir, "uploads")
	media, err := upload.NewStore(upload.Options{Dir: uploadDir, MaxBytes: 1 << 20, Logger: logger})
	requireNoError(t, err)

	provider := &stubProvider{}
	speech, err := tts.NewService(provider, logger)
	requireNoError(t, err)

	demoService, err := demo.NewService(demo.ServiceOptions{
		Repository:    demos,
		Media:         media,
		Speech:        speech,
		PublicBaseURL: "https://scan.example.com",
		Logger:        logger,
	})
	requireNoError(t, err)

	countingFeedback := &countingFeedbackRepository{Repository: feedbacks}
	feedbackService, err := feedback.NewService(countingFeedback)
	requireNoError(t, err)
	curatorService, err := curator.NewService(proposals)
	requireNoError(t, err)

	reporter, err := dashboard.NewReporter(dashboard.Sources{
		Demos:     demos,
		Feedbacks: feedbacks,
		Proposals: proposals,
		Admins:    admins,
	})
	requireNoError(t, err)

	opts := Options{
		Auth:        authService,
		Bearer:      bearerGate,
		AdminKey:    auth.NewSharedSecretAuthorizer(testAdminKey),
		Demos:       demoService,
		Feedback:    feedbackService,
		Curator:     curatorService,
		Dashboard:   reporter,
		Speech:      speech,
		Database:    conn,
		UploadDir:   uploadDir,
		MaxUpload:   media.MaxBytes(),
		CORSOrigins: []string{testOrigin},
		Logger:      logger,
		RateLimiter: RateLimiterSettings{RequestsPerSecond: 0.01, Burst: 2, ClientTTL: time.Minute},
	}
	for _, fn := range configure {
		fn(&opts)
	}

	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return &testServer{server: srv, opts: opts, feedbackRepo: countingFeedback, speech: provider}
}

func (e *testServer) do(t *testing.T, method, target, contentType string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "192.0.2.10:54321"
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *testServer) login(t *testing.T) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"email": testAdminEmail, "password": testAdminPassword})
	rec := e.do(t, stdhttp.MethodPost, "/api/auth/login", "application/json", bytes.NewReader(payload), nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}

	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token")
	}
	return token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body %q failed: %v", rec.Body.String(), err)
	}
	return body
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
}

func samplePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png failed: %v", err)
	}
	return buf.Bytes()
}

type countingFeedbackRepository struct {
	feedback.Repository
	calls atomic.Int64
}

func (r *countingFeedbackRepository) Create(ctx context.Context, entry *feedback.Feedback) error {
	r.calls.Add(1)
	return r.Repository.Create(ctx, entry)
}

func (r *countingFeedbackRepository) List(ctx context.Context) ([]feedback.Feedback, error) {
	r.calls.Add(1)
	return r.Repository.List(ctx)
}

func (r *countingFeedbackRepository) UpdateStatus(ctx context.Context, id string, status feedback.Status) (*feedback.Feedback, error) {
	r.calls.Add(1)
	return r.Repository.UpdateStatus(ctx, id, status)
}

type stubProvider struct {
	fail     atomic.Bool
	lastLang atomic.Value
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Open(_ context.Context, _ string, lang string) (io.ReadCloser, error) {
	p.lastLang.Store(lang)
	if p.fail.Load() {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(strings.NewReader("ID3-audio")), nil
}
