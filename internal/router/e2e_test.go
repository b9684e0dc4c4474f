//go:build integration

package router_test

// Pruebas de integración contra Postgres + Redis reales vía testcontainers.
// Correr con: go test -tags integration ./internal/router/... -v
//
// Cubren el flujo completo de la plataforma:
//   - pipeline de sync (categorías → productos → listas → items → clientes)
//     con idempotencia y filtrado de huérfanos contra la base real
//   - precio personalizado por lista del cliente autenticado
//   - carrito → checkout con precios congelados y descuento de stock

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/config"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/infra"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/router"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type outcomeBody struct {
	TotalRecibidos   int `json:"total_received"`
	Creados          int `json:"created"`
	Actualizados     int `json:"updated"`
	Errores          int `json:"errors"`
	OrfanosFiltrados int `json:"filtered_orphan_count"`
}

// ── Setup ────────────────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	adminToken string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("farmacruz_test"),
		tcPostgres.WithUsername("farmacruz"),
		tcPostgres.WithPassword("farmacruz"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                  8000,
		Env:                   "test",
		WorkerPoolSize:        1,
		DatabaseURL:           pgURL,
		RedisURL:              rdURL,
		JWTSecret:             "secreto-de-integracion",
		JWTExpirationHours:    8,
		JWTRefreshHours:       24,
		ContactoEmail:         "ventas@farmacruz.test",
		PDFStoragePath:        t.TempDir(),
		PrecioCacheTTLSeconds: 60,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-e2e"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		`INSERT INTO usuarios (id, username, nombre, password_hash, rol, activo, created_at, updated_at)
		 VALUES (gen_random_uuid(), 'admin.e2e', 'Admin E2E', ?, 'administrador', true, NOW(), NOW())
		 ON CONFLICT (username) DO NOTHING`, string(hash)).Error)

	engine := router.New(cfg, db, rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, adminToken: login(t, srv, "admin.e2e", "admin-e2e")}
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// seedCatalogo corre el pipeline de sync completo en el orden del job legado.
func seedCatalogo(t *testing.T, env *testEnv) {
	t.Helper()

	resp := do(t, env.server, "POST", "/v1/sync/categorias", jsonBody(t, map[string]any{
		"records": []map[string]any{{"name": "Analgésicos"}},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/sync/productos", jsonBody(t, map[string]any{
		"records": []map[string]any{
			{"product_id": "MED-001", "name": "Paracetamol 500mg", "base_price": "100.00",
				"iva_percentage": "16", "stock_count": 50, "category_name": "Analgésicos"},
			{"product_id": "MED-002", "name": "Suero oral", "base_price": "80.00",
				"iva_percentage": "0", "stock_count": 30},
		},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/sync/listas-precios", jsonBody(t, map[string]any{
		"records": []map[string]any{{"price_list_id": 1, "list_name": "Mayoristas"}},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/sync/listas-precios/items", jsonBody(t, map[string]any{
		"records": []map[string]any{
			{"price_list_id": 1, "product_id": "MED-001", "markup_percentage": "25"},
		},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/sync/clientes", jsonBody(t, map[string]any{
		"records": []map[string]any{
			{"customer_id": "CLI-001", "username": "farmacia.centro",
				"password": "farmacia123", "price_list_id": 1},
		},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_SyncIdempotenteYFiltradoDeHuerfanos(t *testing.T) {
	env := setupTestEnv(t)
	seedCatalogo(t, env)

	// Re-correr el lote de productos: todo es update, nada se duplica.
	resp := do(t, env.server, "POST", "/v1/sync/productos", jsonBody(t, map[string]any{
		"records": []map[string]any{
			{"product_id": "MED-001", "name": "Paracetamol 500mg", "base_price": "100.00",
				"iva_percentage": "16", "stock_count": 50},
			{"product_id": "MED-002", "name": "Suero oral", "base_price": "80.00",
				"iva_percentage": "0", "stock_count": 30},
		},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var outcome outcomeBody
	decodeJSON(t, resp, &outcome)
	assert.Equal(t, 0, outcome.Creados)
	assert.Equal(t, 2, outcome.Actualizados)

	// Items con referencias huérfanas se filtran y se cuentan; el lote avanza.
	resp = do(t, env.server, "POST", "/v1/sync/listas-precios/items", jsonBody(t, map[string]any{
		"records": []map[string]any{
			{"price_list_id": 1, "product_id": "MED-002", "markup_percentage": "10"},
			{"price_list_id": 1, "product_id": "MED-FANTASMA", "markup_percentage": "10"},
			{"price_list_id": 99, "product_id": "MED-001", "markup_percentage": "10"},
		},
	}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &outcome)
	assert.Equal(t, 1, outcome.Creados)
	assert.Equal(t, 2, outcome.OrfanosFiltrados)

	// El sync sin rol administrador se rechaza.
	clienteToken := login(t, env.server, "farmacia.centro", "farmacia123")
	resp = do(t, env.server, "POST", "/v1/sync/categorias", jsonBody(t, map[string]any{
		"records": []map[string]any{{"name": "No debería entrar"}},
	}), clienteToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_PrecioPersonalizadoYCheckout(t *testing.T) {
	env := setupTestEnv(t)
	seedCatalogo(t, env)

	clienteToken := login(t, env.server, "farmacia.centro", "farmacia123")

	// Detalle de producto con el margen de la lista del cliente aplicado:
	// 100 × 1.25 = 125, IVA 16% = 20, final 145.
	resp := do(t, env.server, "GET", "/v1/catalogo/productos/MED-001", nil, clienteToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detalle struct {
		PrecioFinal decimal.Decimal `json:"precio_final"`
		MargenPct   decimal.Decimal `json:"margen_pct"`
		StockActual int             `json:"stock_actual"`
	}
	decodeJSON(t, resp, &detalle)
	assert.True(t, detalle.PrecioFinal.Equal(decimal.RequireFromString("145")), "precio_final=%s", detalle.PrecioFinal)
	assert.True(t, detalle.MargenPct.Equal(decimal.RequireFromString("25")))
	require.Equal(t, 50, detalle.StockActual)

	// Carrito y checkout.
	resp = do(t, env.server, "POST", "/v1/carrito/items", jsonBody(t, map[string]any{
		"producto_id": "MED-001", "cantidad": 2,
	}), clienteToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/pedidos", jsonBody(t, map[string]any{}), clienteToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var pedido struct {
		ID           string          `json:"id"`
		NumeroPedido int             `json:"numero_pedido"`
		Estado       string          `json:"estado"`
		Total        decimal.Decimal `json:"total"`
	}
	decodeJSON(t, resp, &pedido)
	assert.Equal(t, "pendiente", pedido.Estado)
	assert.True(t, pedido.Total.Equal(decimal.RequireFromString("290")), "total=%s", pedido.Total)
	assert.GreaterOrEqual(t, pedido.NumeroPedido, 1000)

	// El stock quedó descontado y el carrito vacío.
	resp = do(t, env.server, "GET", "/v1/catalogo/productos/MED-001", nil, clienteToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &detalle)
	assert.Equal(t, 48, detalle.StockActual)

	resp = do(t, env.server, "GET", "/v1/carrito", nil, clienteToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var carrito struct {
		Items []any `json:"items"`
	}
	decodeJSON(t, resp, &carrito)
	assert.Empty(t, carrito.Items)

	// El staff avanza el pedido; el cliente ya no puede cancelarlo.
	resp = do(t, env.server, "PATCH", "/v1/pedidos/"+pedido.ID+"/estado",
		jsonBody(t, map[string]string{"estado": "confirmado"}), env.adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "DELETE", "/v1/pedidos/"+pedido.ID, nil, clienteToken)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}
