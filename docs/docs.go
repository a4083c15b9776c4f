// Package docs holds the OpenAPI document of the feedwatch status API,
// registered with swag for http-swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/feed": {
            "get": {
                "description": "Returns the phase, the held batch, the selection and the refresh state. No backend call is made.",
                "produces": ["application/json"],
                "tags": ["feed"],
                "summary": "Current feed state",
                "responses": {
                    "200": {
                        "description": "Feed snapshot",
                        "schema": {"$ref": "#/definitions/feed.SnapshotDTO"}
                    }
                }
            }
        },
        "/feed/items/{id}": {
            "get": {
                "description": "Looks the id up in the currently held batch. No backend call is made.",
                "produces": ["application/json"],
                "tags": ["feed"],
                "summary": "Feed item",
                "parameters": [
                    {"type": "integer", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Item", "schema": {"$ref": "#/definitions/feed.ItemDTO"}},
                    "400": {"description": "Bad request - invalid item ID", "schema": {"type": "string"}},
                    "404": {"description": "Not found - item is not in the held batch", "schema": {"type": "string"}}
                }
            }
        },
        "/feed/refresh": {
            "post": {
                "description": "Issues a new fetch. The result is applied asynchronously; poll GET /feed for the outcome.",
                "produces": ["application/json"],
                "tags": ["feed"],
                "summary": "Refresh the feed",
                "responses": {
                    "202": {"description": "Refresh scheduled", "schema": {"$ref": "#/definitions/feed.RefreshDTO"}},
                    "429": {"description": "Too many requests - rate limit exceeded", "schema": {"type": "string"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "200 once the feed phase is ready, 503 while loading or failed.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "feed.SourceDTO": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "example": "BLS Productivity Report"},
                "url": {"type": "string", "example": "https://www.bls.gov/productivity/"},
                "date": {"type": "string", "example": "2025-10-01"}
            }
        },
        "feed.ItemDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 42},
                "topic": {"type": "string", "example": "Automation and the wage share"},
                "summary": {"type": "string"},
                "sources": {"type": "array", "items": {"$ref": "#/definitions/feed.SourceDTO"}},
                "key_stats": {"type": "array", "items": {"type": "string"}},
                "image_url": {"type": "string"},
                "created_at": {"type": "string", "example": "2025-11-15T12:00:00Z"}
            }
        },
        "feed.SnapshotDTO": {
            "type": "object",
            "properties": {
                "phase": {"type": "string", "enum": ["loading", "ready", "error"]},
                "items": {"type": "array", "items": {"$ref": "#/definitions/feed.ItemDTO"}},
                "selected": {"$ref": "#/definitions/feed.ItemDTO"},
                "dangling": {"type": "boolean"},
                "refreshing": {"type": "boolean"},
                "last_error": {"type": "string"},
                "updated_at": {"type": "string"},
                "mode": {"type": "string", "enum": ["latest", "archive"]},
                "seq": {"type": "integer"}
            }
        },
        "feed.RefreshDTO": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "refresh scheduled"}
            }
        },
        "http.CheckStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"$ref": "#/definitions/http.CheckStatus"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Post-labor Feed Status API",
	Description:      "Read-only view of the research feed watcher: current batch, item lookup, manual refresh and health.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
