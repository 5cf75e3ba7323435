package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/api/applications/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/applications/:id", "204"))
	for _, id := range []string{"1", "2", "3"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/applications/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/applications/:id", "204"))
	assert.Equal(t, 3.0, after-before)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "masterminds_http_requests_total")
}

func TestScrapeAfterMixedMethodsOnOneRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/api/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Put("/api/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/api/items", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/metrics", Handler())

	for round := 0; round < 3; round++ {
		for _, method := range []string{"GET", "PUT"} {
			resp, err := app.Test(httptest.NewRequest(method, "/api/items/7", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		}
		resp, err := app.Test(httptest.NewRequest("POST", "/api/items", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `method="GET",path="/api/items/:id"`)
	assert.Contains(t, string(body), `method="PUT",path="/api/items/:id"`)
	assert.Contains(t, string(body), `method="POST",path="/api/items"`)
}

func TestRecordersAndStorageMode(t *testing.T) {
	before := testutil.ToFloat64(authEvents.WithLabelValues("login", "success"))
	RecordAuth("login", "success")
	assert.Equal(t, 1.0, testutil.ToFloat64(authEvents.WithLabelValues("login", "success"))-before)

	RecordApplication("submitted", "")
	assert.GreaterOrEqual(t, testutil.ToFloat64(applicationEvents.WithLabelValues("submitted", "unknown")), 1.0)

	SetStorageMode("mongodb")
	SetStorageMode("memory")
	assert.Equal(t, 1.0, testutil.ToFloat64(storageMode.WithLabelValues("memory")))
	assert.Equal(t, 1, testutil.CollectAndCount(storageMode))
}
