package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/authenticate":
			user, password, ok := r.BasicAuth()
			if !ok || user != "admin" || password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "abc"})
		case "/api/v1/resolve":
			if r.Header.Get("Authorization") != "Bearer abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			body := map[string]string{}
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(map[string]string{"action": "play", "uri": body["url"]})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticateAndCall(t *testing.T) {
	srv := fakeAPI(t)
	Config = APIConfig{Host: srv.URL + "/", Username: "admin", Password: "secret"}

	require.NoError(t, Authenticate())
	assert.Equal(t, "abc", Config.Token)

	resp, err := Call(http.MethodPost, "/api/v1/resolve", map[string]string{"url": "http://radio.example/"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"play","uri":"http://radio.example/"}`, resp)

	_, err = Call(http.MethodGet, "/api/v1/missing", nil)
	assert.ErrorContains(t, err, "404")
}

func TestAuthenticateRejected(t *testing.T) {
	srv := fakeAPI(t)
	Config = APIConfig{Host: srv.URL, Username: "admin", Password: "wrong"}
	assert.Error(t, Authenticate())

	Config = APIConfig{Host: "localhost"}
	assert.Error(t, Authenticate())
}
