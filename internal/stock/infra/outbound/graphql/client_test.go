package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/stockratings/internal/stock/domain"
)

var fixtureStocks = []map[string]interface{}{
	{"id": "1", "ticker": "AAPL", "companyName": "Apple Inc.", "ratingFrom": "Hold", "ratingTo": "Buy", "targetFrom": 150.0, "targetTo": 180.0, "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"},
	{"id": "2", "ticker": "MSFT", "companyName": "Microsoft", "ratingFrom": "Buy", "ratingTo": "Buy", "targetFrom": nil, "targetTo": 400.0, "createdAt": "2024-01-02T00:00:00Z", "updatedAt": "2024-01-02T00:00:00Z"},
}

// testBackend levanta un servidor GraphQL real (graphql-go) con datos de prueba.
type testBackend struct {
	server   *httptest.Server
	syncs    atomic.Int32
	lastVars atomic.Value
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{}

	schema, err := buildTestSchema(b)
	require.NoError(t, err)

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		b.lastVars.Store(req.Variables)

		result := gql.Do(gql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			Context:        r.Context(),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func buildTestSchema(b *testBackend) (gql.Schema, error) {
	stockType := gql.NewObject(gql.ObjectConfig{
		Name: "Stock",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
			"ticker":      &gql.Field{Type: gql.NewNonNull(gql.String)},
			"companyName": &gql.Field{Type: gql.NewNonNull(gql.String)},
			"brokerage":   &gql.Field{Type: gql.String},
			"action":      &gql.Field{Type: gql.String},
			"ratingFrom":  &gql.Field{Type: gql.String},
			"ratingTo":    &gql.Field{Type: gql.String},
			"targetFrom":  &gql.Field{Type: gql.Float},
			"targetTo":    &gql.Field{Type: gql.Float},
			"createdAt":   &gql.Field{Type: gql.String},
			"updatedAt":   &gql.Field{Type: gql.String},
		},
	})
	pageInfoType := gql.NewObject(gql.ObjectConfig{
		Name: "PageInfo",
		Fields: gql.Fields{
			"hasNextPage":     &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
			"hasPreviousPage": &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		},
	})
	connectionType := gql.NewObject(gql.ObjectConfig{
		Name: "StockConnection",
		Fields: gql.Fields{
			"stocks":     &gql.Field{Type: gql.NewList(stockType)},
			"totalCount": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"pageInfo":   &gql.Field{Type: gql.NewNonNull(pageInfoType)},
		},
	})
	recommendationType := gql.NewObject(gql.ObjectConfig{
		Name: "Recommendation",
		Fields: gql.Fields{
			"stock":       &gql.Field{Type: gql.NewNonNull(stockType)},
			"score":       &gql.Field{Type: gql.NewNonNull(gql.Float)},
			"priceChange": &gql.Field{Type: gql.NewNonNull(gql.Float)},
			"ratingScore": &gql.Field{Type: gql.NewNonNull(gql.Float)},
			"actionScore": &gql.Field{Type: gql.NewNonNull(gql.Float)},
		},
	})
	syncResultType := gql.NewObject(gql.ObjectConfig{
		Name: "SyncStocksResult",
		Fields: gql.Fields{
			"success":      &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
			"message":      &gql.Field{Type: gql.NewNonNull(gql.String)},
			"stocksSynced": &gql.Field{Type: gql.NewNonNull(gql.Int)},
		},
	})

	filterInput := gql.NewInputObject(gql.InputObjectConfig{
		Name: "StockFilter",
		Fields: gql.InputObjectConfigFieldMap{
			"ticker":      &gql.InputObjectFieldConfig{Type: gql.String},
			"companyName": &gql.InputObjectFieldConfig{Type: gql.String},
			"ratings":     &gql.InputObjectFieldConfig{Type: gql.NewList(gql.NewNonNull(gql.String))},
			"action":      &gql.InputObjectFieldConfig{Type: gql.String},
		},
	})
	sortInput := gql.NewInputObject(gql.InputObjectConfig{
		Name: "StockSort",
		Fields: gql.InputObjectConfigFieldMap{
			"field": &gql.InputObjectFieldConfig{Type: gql.NewEnum(gql.EnumConfig{
				Name: "StockSortField",
				Values: gql.EnumValueConfigMap{
					"TICKER":       &gql.EnumValueConfig{Value: "ticker"},
					"COMPANY_NAME": &gql.EnumValueConfig{Value: "company_name"},
					"RATING_TO":    &gql.EnumValueConfig{Value: "rating_to"},
					"TARGET_TO":    &gql.EnumValueConfig{Value: "target_to"},
					"CREATED_AT":   &gql.EnumValueConfig{Value: "created_at"},
				},
			})},
			"direction": &gql.InputObjectFieldConfig{Type: gql.NewEnum(gql.EnumConfig{
				Name: "SortDirection",
				Values: gql.EnumValueConfigMap{
					"ASC":  &gql.EnumValueConfig{Value: "asc"},
					"DESC": &gql.EnumValueConfig{Value: "desc"},
				},
			})},
		},
	})

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"stocks": &gql.Field{
				Type: connectionType,
				Args: gql.FieldConfigArgument{
					"filter": &gql.ArgumentConfig{Type: filterInput},
					"sort":   &gql.ArgumentConfig{Type: sortInput},
					"limit":  &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 50},
					"offset": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 0},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					stocks := make([]interface{}, 0, len(fixtureStocks))
					ticker := ""
					if f, ok := p.Args["filter"].(map[string]interface{}); ok {
						ticker, _ = f["ticker"].(string)
					}
					for _, s := range fixtureStocks {
						if ticker == "" || s["ticker"] == ticker {
							stocks = append(stocks, s)
						}
					}
					limit, _ := p.Args["limit"].(int)
					if limit < len(stocks) {
						stocks = stocks[:limit]
					}
					return map[string]interface{}{
						"stocks":     stocks,
						"totalCount": len(stocks),
						"pageInfo":   map[string]interface{}{"hasNextPage": false, "hasPreviousPage": false},
					}, nil
				},
			},
			"stock": &gql.Field{
				Type: stockType,
				Args: gql.FieldConfigArgument{
					"ticker": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					ticker, _ := p.Args["ticker"].(string)
					if ticker == "BOOM" {
						return nil, errors.New("database unavailable")
					}
					for _, s := range fixtureStocks {
						if s["ticker"] == ticker {
							return s, nil
						}
					}
					return nil, nil
				},
			},
			"recommendations": &gql.Field{
				Type: gql.NewList(recommendationType),
				Args: gql.FieldConfigArgument{
					"limit": &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 10},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					return []interface{}{
						map[string]interface{}{"stock": fixtureStocks[0], "score": 9.5, "priceChange": 20.0, "ratingScore": 3.0, "actionScore": 2.0},
					}, nil
				},
			},
		},
	})
	mutation := gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"syncStocks": &gql.Field{
				Type: syncResultType,
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					b.syncs.Add(1)
					return map[string]interface{}{"success": true, "message": "ok", "stocksSynced": len(fixtureStocks)}, nil
				},
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{Query: query, Mutation: mutation})
}

func newTestClient(url string) *Client {
	return NewClient(url, 2*time.Second, zap.NewNop())
}

func TestClient_QueryStocks(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(backend.server.URL)

	params := domain.NewListParams(domain.StockFilter{Ticker: "MSFT"},
		domain.StockSort{Field: domain.SortByTicker, Direction: domain.SortAsc}, 10, 0)

	var resp struct {
		Stocks *domain.StockConnection `json:"stocks"`
	}
	err := client.Query(context.Background(), domain.GetStocksQuery, params.Variables(), &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Stocks)
	require.Len(t, resp.Stocks.Stocks, 1)

	msft := resp.Stocks.Stocks[0]
	assert.Equal(t, "Microsoft", msft.CompanyName)
	assert.Nil(t, msft.TargetFrom)
	require.NotNil(t, msft.TargetTo)
	assert.Equal(t, 400.0, *msft.TargetTo)

	vars, _ := backend.lastVars.Load().(map[string]interface{})
	assert.EqualValues(t, 10, vars["limit"])
	assert.Equal(t, map[string]interface{}{"ticker": "MSFT"}, vars["filter"])
}

func TestClient_QueryStock_NotFound(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(backend.server.URL)

	var resp struct {
		Stock *domain.Stock `json:"stock"`
	}
	err := client.Query(context.Background(), domain.GetStockQuery, map[string]interface{}{"ticker": "ZZZZ"}, &resp)
	require.NoError(t, err)
	assert.Nil(t, resp.Stock)
}

func TestClient_QueryRecommendations(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(backend.server.URL)

	var resp struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	err := client.Query(context.Background(), domain.GetRecommendationsQuery, map[string]interface{}{"limit": 5}, &resp)
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "AAPL", resp.Recommendations[0].Stock.Ticker)
	assert.Equal(t, 9.5, resp.Recommendations[0].Score)
}

func TestClient_MutateSync(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(backend.server.URL)

	var resp struct {
		SyncStocks *domain.SyncResult `json:"syncStocks"`
	}
	err := client.Mutate(context.Background(), domain.SyncStocksMutation, nil, &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.SyncStocks)
	assert.True(t, resp.SyncStocks.Success)
	assert.Equal(t, 2, resp.SyncStocks.StocksSynced)
	assert.EqualValues(t, 1, backend.syncs.Load())
}

func TestClient_GraphQLError(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(backend.server.URL)

	var resp struct {
		Stock *domain.Stock `json:"stock"`
	}
	err := client.Query(context.Background(), domain.GetStockQuery, map[string]interface{}{"ticker": "BOOM"}, &resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGraphQL)

	var msg *domain.MessageError
	require.ErrorAs(t, err, &msg)
	assert.Equal(t, "database unavailable", msg.Msg)
}

func TestClient_Non200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := newTestClient(srv.URL).Query(context.Background(), domain.GetStockQuery, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, domain.ErrGraphQL)
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out map[string]interface{}
	err := newTestClient(url).Query(context.Background(), domain.GetStockQuery, nil, &out)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_CancelledContext(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(backend.server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]interface{}
	err := client.Query(ctx, domain.GetStockQuery, map[string]interface{}{"ticker": "AAPL"}, &out)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
