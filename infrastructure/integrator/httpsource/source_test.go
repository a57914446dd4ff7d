package httpsource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/metrics-api/internal/config"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
)

func march() domain.SubRange {
	return domain.SubRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   metering.EndOfDay(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)),
	}
}

func TestSource_Fetch(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"created_at": "2024-03-02T10:00:00Z", "amount": 10.5, "status": "paid", "customer": {"region": "north"}},
			{"created_at": "2024-03-03T10:00:00Z", "amount": "15", "status": "paid"},
			{"created_at": "2024-03-04T10:00:00Z", "amount": 99, "status": "open"},
			{"created_at": "2024-04-01T10:00:00Z", "amount": 1, "status": "paid"},
			{"amount": 1, "status": "paid"}
		]`))
	}))
	defer server.Close()

	source, err := NewSource(NewClient("tok", time.Second), "sales", server.URL+"/api/sales?tenant=1")
	require.NoError(t, err)
	assert.Equal(t, "sales", source.Name())

	records, err := source.Fetch(context.Background(), metering.RecordQuery{
		DateField: "created_at",
		Range:     march(),
		Filter:    domain.Filter{{Field: "status", Operator: domain.OpEqual, Value: "paid"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, []string{"1"}, gotQuery["tenant"])
	assert.Equal(t, []string{"paid"}, gotQuery["status"])
	assert.Equal(t, []string{"2024-03-01T00:00:00Z"}, gotQuery["start"])
	assert.Equal(t, []string{"created_at"}, gotQuery["date_field"])

	require.Len(t, records, 2)
	amount, ok := domain.Numeric(records[0]["amount"])
	assert.True(t, ok)
	assert.Equal(t, 10.5, amount)

	region, ok := records[0].Get("customer.region")
	assert.True(t, ok)
	assert.Equal(t, "north", region)
}

func TestSource_FetchInteriorSubRangeInLocalZone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[
			{"created_at": "2024-03-01 00:10:00", "id": 1},
			{"created_at": "2024-03-01T23:59:59.9995+05:30", "id": 2},
			{"created_at": "2024-03-02 00:00:00", "id": 3}
		]`))
	}))
	defer server.Close()

	source, err := NewSource(NewClient("", time.Second), "sales", server.URL)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	records, err := source.Fetch(context.Background(), metering.RecordQuery{
		DateField: "created_at",
		Range: domain.SubRange{
			Start: start,
			End:   metering.EndOfDay(start),
			Next:  start.AddDate(0, 0, 1),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-03-02T00:00:00+05:30"}, gotQuery["end"])
	require.Len(t, records, 2)
	assert.EqualValues(t, "1", fmt.Sprint(records[0]["id"]))
	assert.EqualValues(t, "2", fmt.Sprint(records[1]["id"]))
}

func TestSource_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	source, err := NewSource(NewClient("", 0), "sales", server.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), metering.RecordQuery{DateField: "created_at", Range: march()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSource_FetchInvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}))
	defer server.Close()

	source, err := NewSource(NewClient("", 0), "sales", server.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), metering.RecordQuery{DateField: "created_at", Range: march()})
	assert.ErrorContains(t, err, "decodificar")
}

func TestNewSource_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "ftp://host/x", "not a url", "http://"} {
		_, err := NewSource(NewClient("", 0), "sales", endpoint)
		assert.Error(t, err, endpoint)
	}
}

func TestSource_WithAggregator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"created_at": "2024-03-02T10:00:00Z", "amount": 10},
			{"created_at": "2024-03-05T10:00:00Z", "amount": 15}
		]`))
	}))
	defer server.Close()

	source, err := NewSource(NewClient("", 0), "sales", server.URL)
	require.NoError(t, err)

	svc := metering.NewService(config.Metrics{Timezone: "UTC", Timeout: 5 * time.Second}, nil)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	value, err := svc.Headline(context.Background(), metering.HeadlineRequest{
		Sources: []metering.RecordSource{source},
		Func:    domain.AggregationSum,
		Field:   "amount",
		Start:   &start,
		End:     &end,
	})
	require.NoError(t, err)
	// o servidor devolve os mesmos registros para cada dia; só o dia correto é mantido
	assert.Equal(t, "25", value)
}

func TestFromConfig(t *testing.T) {
	client := NewClient("", 0)

	sources, err := FromConfig(client, []string{" sales = https://erp.example.com/api/sales ", ""})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "sales", sources[0].Name())

	_, err = FromConfig(client, []string{"https://erp.example.com/api/sales"})
	assert.Error(t, err)
}
