package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the Swagger/OpenAPI endpoints for the auth service.
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
    <title>seatrack-auth - Swagger</title>
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

// OpenAPI document describing the auth, admin and oauth endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "seatrack-auth", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "User": {"type":"object","properties":{"id":{"type":"integer"},"name":{"type":"string"},"email":{"type":"string"},"role":{"type":"string","enum":["user","employee","admin"]},"status":{"type":"string","enum":["active","inactive"]},"provider":{"type":"string"},"avatar":{"type":"string"},"joinedAt":{"type":"string","format":"date-time"}}},
      "AuthResult": {"type":"object","properties":{"user":{"$ref":"#/components/schemas/User"},"token":{"type":"string"}}},
      "Error": {"type":"object","properties":{"error":{"type":"string"},"code":{"type":"string"}}}
    }
  },
  "paths": {
    "/auth/register": {
      "post": {
        "summary": "Create a local account",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"},"confirmPassword":{"type":"string"}}}}}},
        "responses": { "201": { "description": "account created, token returned" }, "400": { "description": "validation error" }, "409": { "description": "email already registered" } }
      }
    },
    "/auth/login": {
      "post": {
        "summary": "Sign in with email and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token returned" }, "400": { "description": "missing field" }, "401": { "description": "invalid credentials" }, "403": { "description": "account inactive" } }
      }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the presented token", "security": [{"bearer":[]}], "responses": { "200": { "description": "logged out" } } }
    },
    "/auth/verify": {
      "get": { "summary": "Validate the presented token", "security": [{"bearer":[]}], "responses": { "200": { "description": "userId, email and role" }, "401": { "description": "invalid, expired or revoked token" }, "403": { "description": "account inactive" } } }
    },
    "/auth/profile": {
      "get": { "summary": "Current account", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update name and email", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated user" }, "409": { "description": "email taken" } } }
    },
    "/auth/profile/avatar": {
      "get": { "summary": "Redirect to the avatar image", "security": [{"bearer":[]}], "responses": { "302": { "description": "redirect" }, "404": { "description": "no avatar" } } },
      "post": { "summary": "Upload an avatar (multipart field avatar)", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated user" }, "400": { "description": "invalid image" }, "503": { "description": "storage not configured" } } }
    },
    "/admin/users": {
      "get": { "summary": "List all users (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "users" }, "403": { "description": "insufficient role" } } }
    },
    "/admin/users/{id}/role": {
      "put": { "summary": "Change a user's role (admin)", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"role":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated user" }, "400": { "description": "invalid role" }, "404": { "description": "not found" } } }
    },
    "/admin/users/{id}/status": {
      "put": { "summary": "Activate or deactivate a user (admin)", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"status":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated user" }, "400": { "description": "invalid status" }, "404": { "description": "not found" } } }
    },
    "/admin/users/{id}": {
      "delete": { "summary": "Delete a non-admin user (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "deleted user" }, "403": { "description": "target is an admin" }, "404": { "description": "not found" } } }
    },
    "/admin/stats": {
      "get": { "summary": "User counts and role permissions (admin)", "security": [{"bearer":[]}], "responses": { "200": { "description": "stats" } } }
    },
    "/oauth/google": {
      "post": { "summary": "Sign in with a Google access token or ID token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"accessToken":{"type":"string"},"idToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "token returned" }, "400": { "description": "missing token" }, "502": { "description": "provider error" } } }
    },
    "/oauth/facebook": {
      "post": { "summary": "Sign in with a Facebook access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"accessToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "token returned" }, "400": { "description": "missing token" }, "502": { "description": "provider error" } } }
    },
    "/oauth/config": {
      "get": { "summary": "Public OAuth client settings", "responses": { "200": { "description": "client ids, scopes and redirect URIs" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
