package httpsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/metrics-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	startParam = "start"
	endParam   = "end"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// PeriodParams são os parâmetros de uma consulta por período
type PeriodParams struct {
	Start     time.Time
	End       time.Time
	DateField string
	Filter    domain.Filter
}

type Client interface {
	GetRecords(ctx context.Context, endpoint string, params PeriodParams) ([]domain.Record, error)
}

type HTTPClient struct {
	httpClient *http.Client
	token      string
}

// NewClient cria um cliente para APIs que devolvem uma lista JSON de registros por período
func NewClient(token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		token: token,
	}
}

// GetRecords consulta endpoint com start/end em RFC3339 e as condições de igualdade do filtro
func (c *HTTPClient) GetRecords(ctx context.Context, endpoint string, params PeriodParams) ([]domain.Record, error) {
	// Construir a URL da requisição.
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("erro ao analisar a URL base: %w", err)
	}

	// Adicionar parâmetros de consulta.
	query := u.Query()
	query.Set(startParam, params.Start.Format(time.RFC3339Nano))
	query.Set(endParam, params.End.Format(time.RFC3339Nano))
	if params.DateField != "" {
		query.Set("date_field", params.DateField)
	}
	for _, cond := range params.Filter {
		if cond.Op() == domain.OpEqual {
			query.Add(cond.Field, fmt.Sprint(cond.Value))
		}
	}
	u.RawQuery = query.Encode()

	// Criar a requisição HTTP.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição: %w", err)
	}

	// Adicionar cabeçalhos necessários.
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	// Executar a requisição.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a requisição: %w", err)
	}
	defer resp.Body.Close()

	// Verificar o código de status da resposta.
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("requisição falhou com status: %s: %s", resp.Status, body)
	}

	// Decodificar a resposta JSON, mantendo números como json.Number
	var records []domain.Record
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("erro ao decodificar a resposta: %w", err)
	}

	return records, nil
}
