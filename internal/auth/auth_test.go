package auth

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
)

func extractCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionCookieFormat(t *testing.T) {
	rr := httptest.NewRecorder()
	CreateSession(rr, Identity{UserID: "buyer-7", Role: RoleBuyer})
	c := extractCookie(rr, "session")
	if c == nil {
		t.Fatalf("missing session cookie")
	}
	if !regexp.MustCompile(`^[^.]+\|[a-z]+\.[A-Za-z0-9_-]+$`).MatchString(c.Value) {
		t.Fatalf("bad cookie format: %s", c.Value)
	}
}

func TestParseSessionRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	CreateSession(rr, Identity{UserID: "vendor-3", Role: RoleVendor})
	c := extractCookie(rr, "session")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	id, ok := ParseSession(req)
	if !ok || id.UserID != "vendor-3" || id.Role != RoleVendor {
		t.Fatalf("round trip failed: %+v ok=%v", id, ok)
	}
}

func TestParseSessionRejectsTampering(t *testing.T) {
	rr := httptest.NewRecorder()
	CreateSession(rr, Identity{UserID: "buyer-1", Role: RoleBuyer})
	c := extractCookie(rr, "session")
	c.Value = "buyer-1|vendor." + c.Value[len(c.Value)-10:]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	if _, ok := ParseSession(req); ok {
		t.Fatalf("tampered cookie must not parse")
	}
}

func TestParseSessionRejectsUnknownRole(t *testing.T) {
	payload := "user-1|admin"
	value := payload + "." + sign(payload)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: value})
	if _, ok := ParseSession(req); ok {
		t.Fatalf("unknown role must not parse")
	}
}
