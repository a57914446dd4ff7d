package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	renderBaseURL  = "https://api.render.com/v1"
	secretPageSize = 100
	// trecho máximo do corpo de erro incluído na mensagem
	maxErrorBody = 512
)

// SecretSource fornece os secrets que sobrescrevem a configuração local
type SecretSource interface {
	ListSecrets(ctx context.Context, serviceID string) (map[string]string, error)
}

// RenderClient lê os secret files de um serviço no Render
type RenderClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewRenderClient(config *Config) *RenderClient {
	return &RenderClient{
		APIKey:     config.Render.APIKey,
		BaseURL:    renderBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type secretFilePage []struct {
	SecretFile struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	} `json:"secretFile"`
	Cursor string `json:"cursor"`
}

// ListSecrets percorre todas as páginas de secret files, seguindo o cursor da última entrada
func (c *RenderClient) ListSecrets(ctx context.Context, serviceID string) (map[string]string, error) {
	secrets := make(map[string]string)
	cursor := ""

	for {
		page, err := c.listPage(ctx, serviceID, cursor)
		if err != nil {
			return nil, err
		}

		for _, entry := range page {
			secrets[entry.SecretFile.Name] = entry.SecretFile.Content
		}

		if len(page) < secretPageSize || page[len(page)-1].Cursor == "" {
			return secrets, nil
		}
		cursor = page[len(page)-1].Cursor
	}
}

func (c *RenderClient) listPage(ctx context.Context, serviceID, cursor string) (secretFilePage, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprint(secretPageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	endpoint := fmt.Sprintf("%s/services/%s/secret-files?%s", c.BaseURL, url.PathEscape(serviceID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config: erro ao consultar secrets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("config: erro ao listar secrets (status %d): %s", resp.StatusCode, body)
	}

	var page secretFilePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("config: resposta de secrets inválida: %w", err)
	}
	return page, nil
}

// LoadSecrets busca os secrets do serviço e aplica sobre a configuração
func (c *Config) LoadSecrets(ctx context.Context, source SecretSource) error {
	secrets, err := source.ListSecrets(ctx, c.Render.ServiceID)
	if err != nil {
		return err
	}
	c.ApplySecrets(secrets)
	return nil
}
