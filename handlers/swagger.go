package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>staffboard - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "staffboard", "version": "v1.0.0" },
  "paths": {
    "/auth/anonymous": { "post": { "summary": "Start an anonymous dashboard session", "responses": { "201": { "description": "tokens returned" } } } },
    "/auth/admin": {
      "post": {
        "summary": "Grant the admin capability with the shared password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "admin tokens returned" }, "401": { "description": "wrong password" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/menu": { "get": { "summary": "Dashboard menu", "responses": { "200": { "description": "menu entries" } } } },
    "/api/v1/schedules": {
      "get": { "summary": "List instructor schedule events", "responses": { "200": { "description": "events" } } },
      "post": { "summary": "Add one event", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"date":{"type":"string","format":"date"}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" } } }
    },
    "/api/v1/schedules/{id}": { "delete": { "summary": "Remove one event", "responses": { "204": { "description": "removed" }, "404": { "description": "not found" } } } },
    "/api/v1/schedules/generate": {
      "post": { "summary": "Generate a weekly series", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"startDate":{"type":"string","format":"date"},"endDate":{"type":"string","format":"date"},"dayOfWeek":{"type":"integer","minimum":0,"maximum":6}}}}}}, "responses": { "200": { "description": "count of generated events" } } }
    },
    "/api/v1/schedules/bulk-delete": {
      "post": { "summary": "Delete events by title and date range", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"startDate":{"type":"string","format":"date"},"endDate":{"type":"string","format":"date"},"confirm":{"type":"boolean"}}}}}}, "responses": { "200": { "description": "count of deleted events" }, "428": { "description": "confirmation required" } } }
    },
    "/api/v1/schedules/bulk-move": {
      "post": { "summary": "Move events by title and date range to one date", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"startDate":{"type":"string","format":"date"},"endDate":{"type":"string","format":"date"},"targetDate":{"type":"string","format":"date"},"confirm":{"type":"boolean"}}}}}}, "responses": { "200": { "description": "count of moved events" }, "428": { "description": "confirmation required" } } }
    },
    "/api/v1/schedules/calendar": { "get": { "summary": "Month grid (month is zero-based)", "parameters": [{"name":"year","in":"query","schema":{"type":"integer"}},{"name":"month","in":"query","schema":{"type":"integer","minimum":0,"maximum":11}}], "responses": { "200": { "description": "grid" } } } },
    "/api/v1/schedules/export.ics": { "get": { "summary": "iCalendar feed", "responses": { "200": { "description": "text/calendar" } } } },
    "/api/v1/schedules/export": { "post": { "summary": "Publish the feed to object storage", "responses": { "200": { "description": "presigned URL" }, "503": { "description": "object storage not configured" } } } },
    "/api/v1/committees": { "get": { "summary": "Committee table, seeded on first use", "responses": { "200": { "description": "rows" } } } },
    "/api/v1/committees/{id}": { "patch": { "summary": "Write one committee cell", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"field":{"type":"string","enum":["insa","eval","art","equip"]},"value":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated" }, "404": { "description": "not found" } } } },
    "/api/v1/files/{menu}": {
      "get": { "summary": "Files of a static menu", "responses": { "200": { "description": "files" } } },
      "post": { "summary": "Register a shared image or PDF", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"link":{"type":"string"},"type":{"type":"string","enum":["image","pdf"]}}}}}}, "responses": { "201": { "description": "created" } } }
    },
    "/api/v1/files/{menu}/{id}": { "delete": { "summary": "Remove a file record", "responses": { "204": { "description": "removed" } } } },
    "/api/v1/live/{collection}": { "get": { "summary": "Server-sent snapshots of a collection", "responses": { "200": { "description": "text/event-stream" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
