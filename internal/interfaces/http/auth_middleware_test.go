package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/sales-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/sales-ledger/pkg/jwt"
)

const (
	testJWTSecret  = "test-secret-key-for-unit-tests"
	testActorID    = "cajero-7"
	testBusinessID = "biz-centro"
	otherBusiness  = "biz-norte"
	testIssuer     = "sales-ledger-test"
)

// sessionToken firma un token con la sesión indicada; expMin negativo lo deja vencido.
func sessionToken(t *testing.T, actorID, businessID, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, actorID, businessID, role, testIssuer, expMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	return sessionToken(t, testActorID, testBusinessID, role, 60)
}

// whoAmIApp expone la sesión resuelta por AuthMiddleware.
func whoAmIApp() *fiber.App {
	app := fiber.New()
	app.Get("/session", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"actor_id":    apphttp.GetActorID(c),
			"business_id": apphttp.GetBusinessID(c),
			"role":        apphttp.GetRole(c),
		})
	})
	return app
}

func send(t *testing.T, app *fiber.App, method, path, auth string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución de sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ResuelveSesionDelToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/session?business_id="+otherBusiness, nil)
	req.Header.Set("Authorization", tokenForRole(t, apphttp.RoleVendedor))
	req.Header.Set("X-Business-ID", otherBusiness)
	resp, err := whoAmIApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testActorID, body["actor_id"])
	assert.Equal(t, testBusinessID, body["business_id"], "ni query ni header cambian el negocio")
	assert.Equal(t, apphttp.RoleVendedor, body["role"])
}

func TestAuthMiddleware_SesionesRechazadas(t *testing.T) {
	cases := []struct {
		name string
		auth func(t *testing.T) string
		code string
	}{
		{"sin header", func(*testing.T) string { return "" }, "MISSING_TOKEN"},
		{"esquema basic", func(*testing.T) string { return "Basic Y2FqZXJvOnNlY3JldG8=" }, "INVALID_TOKEN"},
		{"token corrupto", func(*testing.T) string { return "Bearer a.b.c" }, "INVALID_TOKEN"},
		{"token vencido", func(t *testing.T) string {
			return sessionToken(t, testActorID, testBusinessID, apphttp.RoleAdmin, -1)
		}, "INVALID_TOKEN"},
		{"firmado con otra clave", func(t *testing.T) string {
			tok, err := pkgjwt.Generate("clave-de-otro-servicio", testActorID, testBusinessID, apphttp.RoleAdmin, testIssuer, 60)
			require.NoError(t, err)
			return "Bearer " + tok
		}, "INVALID_TOKEN"},
		{"sin negocio", func(t *testing.T) string {
			return sessionToken(t, testActorID, "", apphttp.RoleAdmin, 60)
		}, "UNAUTHORIZED"},
		{"sin actor", func(t *testing.T) string {
			return sessionToken(t, "", testBusinessID, apphttp.RoleAdmin, 60)
		}, "UNAUTHORIZED"},
	}
	app := whoAmIApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := send(t, app, http.MethodGet, "/session", tc.auth(t), nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Permisos por ruta
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_PermisosPorRol(t *testing.T) {
	sale := saleBody(item("p-1", 1))
	movement := map[string]any{"product_id": "p-1", "type": "purchase", "quantity_delta": 1}

	cases := []struct {
		method  string
		path    string
		body    any
		allowed []string
		denied  []string
	}{
		{http.MethodPost, "/api/sales", sale, []string{"admin", "vendedor"}, []string{"bodeguero"}},
		{http.MethodPost, "/api/inventory/movements", movement, []string{"admin", "bodeguero"}, []string{"vendedor"}},
		{http.MethodGet, "/api/inventory/products/p-1/movements", nil, []string{"admin", "vendedor", "bodeguero"}, nil},
		{http.MethodGet, "/api/inventory/low-stock", nil, []string{"admin", "vendedor", "bodeguero"}, nil},
	}
	for _, tc := range cases {
		for _, role := range tc.allowed {
			t.Run(tc.method+" "+tc.path+" "+role, func(t *testing.T) {
				api := newAPI(t)
				resp, body := send(t, api.app, tc.method, tc.path, tokenForRole(t, role), tc.body)
				assert.Less(t, resp.StatusCode, 300, body)
			})
		}
		for _, role := range tc.denied {
			t.Run(tc.method+" "+tc.path+" "+role, func(t *testing.T) {
				api := newAPI(t)
				resp, body := send(t, api.app, tc.method, tc.path, tokenForRole(t, role), tc.body)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				assert.Equal(t, "FORBIDDEN", body["code"])
				p, _ := api.store.Product("p-1")
				assert.Equal(t, int64(10), p.StockQuantity, "un rechazo por rol no toca el stock")
			})
		}
	}
}

func TestRouter_TokenSinRolEnRutaDeVenta(t *testing.T) {
	api := newAPI(t)

	resp, body := send(t, api.app, http.MethodPost, "/api/sales",
		sessionToken(t, testActorID, testBusinessID, "", 60), saleBody(item("p-1", 1)))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", body["code"])
	assert.Zero(t, api.store.SaleCount())
}

func TestRouter_VentaQuedaEnElNegocioDelToken(t *testing.T) {
	api := newAPI(t)
	body := saleBody(item("p-1", 1))
	body["business_id"] = otherBusiness

	resp, created := send(t, api.app, http.MethodPost, "/api/sales", tokenForRole(t, "vendedor"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, created)
	assert.Equal(t, testBusinessID, created["business_id"])

	id, _ := created["id"].(string)
	resp, _ = send(t, api.app, http.MethodGet, "/api/sales/"+id,
		sessionToken(t, "auditor-1", otherBusiness, apphttp.RoleAdmin, 60), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "otro negocio no ve la venta")
}
