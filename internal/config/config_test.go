package config

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderClient_ListSecrets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/srv-1/secret-files", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"secretFile":{"name":"secret_key","content":"s3cr3t"}},{"secretFile":{"name":"database_password","content":"pw"}}]`))
	}))
	defer server.Close()

	client := &RenderClient{APIKey: "key", BaseURL: server.URL, HTTPClient: server.Client()}

	secrets, err := client.ListSecrets(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"secret_key": "s3cr3t", "database_password": "pw"}, secrets)
}

func TestRenderClient_ListSecretsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("unauthorized"))
	}))
	defer server.Close()

	client := &RenderClient{APIKey: "key", BaseURL: server.URL, HTTPClient: server.Client()}

	_, err := client.ListSecrets(context.Background(), "srv-1")
	assert.ErrorContains(t, err, "status 401")
	assert.ErrorContains(t, err, "unauthorized")
}

func TestRenderClient_ListSecretsPaginated(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		if r.URL.Query().Get("cursor") == "" {
			page := make([]string, 0, 100)
			for i := 0; i < 100; i++ {
				page = append(page, fmt.Sprintf(`{"secretFile":{"name":"s%d","content":"v"},"cursor":"c%d"}`, i, i))
			}
			w.Write([]byte("[" + strings.Join(page, ",") + "]"))
			return
		}

		assert.Equal(t, "c99", r.URL.Query().Get("cursor"))
		w.Write([]byte(`[{"secretFile":{"name":"secret_key","content":"last"},"cursor":"c100"}]`))
	}))
	defer server.Close()

	client := &RenderClient{APIKey: "key", BaseURL: server.URL, HTTPClient: server.Client()}

	secrets, err := client.ListSecrets(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, secrets, 101)
	assert.Equal(t, "last", secrets["secret_key"])
}

type staticSecrets map[string]string

func (s staticSecrets) ListSecrets(context.Context, string) (map[string]string, error) {
	return s, nil
}

func TestConfig_LoadSecrets(t *testing.T) {
	cfg := &Config{Render: Render{ServiceID: "srv-1"}}

	require.NoError(t, cfg.LoadSecrets(context.Background(), staticSecrets{"database_password": "remote"}))
	assert.Equal(t, "remote", cfg.Database.Password)
}

func TestConfig_ApplySecrets(t *testing.T) {
	cfg := &Config{SecretKey: "local", Database: Database{Password: "root"}}

	cfg.ApplySecrets(map[string]string{"secret_key": "remote", "other": "x"})

	assert.Equal(t, "remote", cfg.SecretKey)
	assert.Equal(t, "root", cfg.Database.Password)

	cfg.ApplySecrets(map[string]string{"metrics_http_token": "tok"})
	assert.Equal(t, "tok", cfg.Metrics.HTTPToken)
}
