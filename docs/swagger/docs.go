// Package swagger registers the convreg OpenAPI document with swag so the
// Swagger UI can serve it at /swagger/doc.json.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Returns OK if the service is running",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}}
            }
        },
        "/health/ready": {
            "get": {
                "description": "Checks the saved selector database is reachable",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/version": {
            "get": {
                "description": "Returns the version information for the convreg service",
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Get service version",
                "responses": {"200": {"description": "Version information", "schema": {"$ref": "#/definitions/http.VersionResponse"}}}
            }
        },
        "/api/v1/converters": {
            "get": {
                "description": "Returns every converter the registry can build with its documentation URL and arity",
                "produces": ["application/json"],
                "tags": ["Converters"],
                "summary": "List converters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}}}
            }
        },
        "/api/v1/converters/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Converters"],
                "summary": "Get converter",
                "parameters": [{"type": "string", "description": "Converter name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/v1/resolve": {
            "post": {
                "description": "Parses and builds a selector, returning its canonical form and tree",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Resolution"],
                "summary": "Resolve a selector",
                "parameters": [{"description": "Selector", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ResolveRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/v1/convert": {
            "post": {
                "description": "Resolves a selector and converts the value to the target (int, int64, float64, decimal, expression-number)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Resolution"],
                "summary": "Convert a value",
                "parameters": [{"description": "Conversion", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ConvertRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        },
        "/api/v1/resolutions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Resolution"],
                "summary": "Recent resolutions",
                "parameters": [{"type": "integer", "description": "Maximum records (default 50, max 500)", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}}}
            }
        },
        "/api/v1/selectors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Selectors"],
                "summary": "List saved selectors",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}}}
            }
        },
        "/api/v1/selectors/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Selectors"],
                "summary": "Get saved selector",
                "parameters": [{"type": "string", "description": "Alias", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "put": {
                "description": "Validates the selector by building it and stores its canonical text",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Selectors"],
                "summary": "Save selector",
                "parameters": [
                    {"type": "string", "description": "Alias", "name": "name", "in": "path", "required": true},
                    {"type": "string", "description": "Admin key", "name": "X-Admin-Key", "in": "header"},
                    {"type": "string", "description": "Bearer admin token", "name": "Authorization", "in": "header"},
                    {"description": "Selector", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SaveSelectorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            },
            "delete": {
                "tags": ["Selectors"],
                "summary": "Delete saved selector",
                "parameters": [
                    {"type": "string", "description": "Alias", "name": "name", "in": "path", "required": true},
                    {"type": "string", "description": "Admin key", "name": "X-Admin-Key", "in": "header"},
                    {"type": "string", "description": "Bearer admin token", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/jsonapi.Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/jsonapi.Document"}}
                }
            }
        }
    },
    "definitions": {
        "http.ConvertRequest": {
            "type": "object",
            "properties": {
                "selector": {"type": "string", "example": "number-to-number"},
                "target": {"type": "string", "example": "decimal"},
                "value": {"type": "string", "example": "12.5"}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string", "example": "ok"}
            }
        },
        "http.ResolveRequest": {
            "type": "object",
            "properties": {
                "selector": {"type": "string", "example": "to-number-or-expression-number(number-to-number)"}
            }
        },
        "http.SaveSelectorRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "selector": {"type": "string", "example": "to-number-or-expression-number(number-to-number)"}
            }
        },
        "http.VersionResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "convreg"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "jsonapi.Document": {
            "type": "object",
            "properties": {
                "data": {},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/jsonapi.Error"}},
                "links": {"$ref": "#/definitions/jsonapi.Links"},
                "meta": {"type": "object", "additionalProperties": true}
            }
        },
        "jsonapi.Error": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "detail": {"type": "string"},
                "id": {"type": "string"},
                "meta": {"type": "object", "additionalProperties": true},
                "status": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "jsonapi.Links": {
            "type": "object",
            "properties": {
                "related": {"type": "string"},
                "self": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "convreg API",
	Description:      "Named converter resolution registry: catalogue, selector resolution, conversion and saved selectors.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
