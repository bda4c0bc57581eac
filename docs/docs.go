// Package docs holds the Swagger spec for the internal admin and search
// HTTP surface. The spec is written by hand in swag's generated-file
// format; the handlers carry no swag annotations, so `swag init` does not
// reproduce it and it is edited directly when the API changes.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/search": {
            "get": {
                "description": "Returns the cheapest known prices for a query term across every registered source, launching a background refresh if the data looks stale or absent.",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "query", "in": "query", "required": true},
                    {"type": "boolean", "name": "force_refresh", "in": "query", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SearchResponse"}},
                    "422": {"description": "invalid query"},
                    "503": {"description": "search infrastructure unavailable"}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports database and cache connectivity.",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "degraded"}
                }
            }
        },
        "/internal/admin/sources": {
            "get": {
                "description": "Lists every registered source.",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "description": "Registers a new source and provisions its adapter.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateSourceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.Source"}},
                    "400": {"description": "invalid request"},
                    "422": {"description": "base_url unreachable"}
                }
            }
        },
        "/internal/admin/sources/{id}": {
            "delete": {
                "description": "Deactivates a source and unregisters its adapter.",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "not found"}
                }
            }
        },
        "/internal/jobs/{jobId}": {
            "get": {
                "description": "Returns the current status of a refresh job.",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "jobId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ScrapeJob"}},
                    "404": {"description": "not found"}
                }
            }
        }
    },
    "definitions": {
        "handlers.SearchRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "force_refresh": {"type": "boolean"}
            }
        },
        "handlers.CreateSourceRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "base_url": {"type": "string"},
                "adapter": {"type": "string"}
            }
        },
        "types.SearchResultItem": {
            "type": "object",
            "properties": {
                "source_name": {"type": "string"},
                "source_product_name": {"type": "string"},
                "price": {"type": "string"},
                "currency": {"type": "string"},
                "product_url": {"type": "string"},
                "scraped_at": {"type": "string"}
            }
        },
        "types.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/types.SearchResultItem"}},
                "from_cache": {"type": "boolean"},
                "job_id": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "types.Source": {
            "type": "object",
            "properties": {
                "source_id": {"type": "integer"},
                "name": {"type": "string"},
                "base_url": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "types.ScrapeJob": {
            "type": "object",
            "properties": {
                "job_id": {"type": "integer"},
                "query_term": {"type": "string"},
                "status": {"type": "string"},
                "error_message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can access it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Search Service API",
	Description:      "Public search endpoint plus an internal admin API for managing price sources and refresh jobs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
