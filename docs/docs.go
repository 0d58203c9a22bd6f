// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Current user",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/customers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["customers"],
                "summary": "Create a customer",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CustomerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "403": {"description": "Admin only", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "409": {"description": "Duplicate customer id", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/customers/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["customers"],
                "summary": "Search customers",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "default": "50", "description": "Max results, or none", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/customers/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["customers"],
                "summary": "Get a customer",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["customers"],
                "summary": "Replace a customer",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CustomerRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["customers"],
                "summary": "Delete a customer",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/batches": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["batches"],
                "summary": "Start a batch run",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "file", "name": "files", "in": "formData", "required": true},
                    {"type": "string", "default": "image", "name": "mode", "in": "formData"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/batches/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["batches"],
                "summary": "Batch progress",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/batches/{id}/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["batches"],
                "summary": "Export batch lines as XLSX",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/results": {
            "get": {
                "tags": ["results"],
                "summary": "Read saved results",
                "parameters": [{"type": "string", "name": "wms_session_token", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["results"],
                "summary": "Save the result table",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SaveResultsRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["results"],
                "summary": "Clear saved results",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/results/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["results"],
                "summary": "Export saved results as XLSX",
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {"success": {"type": "boolean", "example": false}, "error": {"$ref": "#/definitions/handler.APIError"}}
        },
        "handler.Response": {
            "type": "object",
            "properties": {"success": {"type": "boolean", "example": true}, "data": {}, "meta": {"type": "object"}}
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string", "example": "planner1"}, "password": {"type": "string"}}
        },
        "handler.CustomerRequest": {
            "type": "object",
            "required": ["customer_id", "customer_names"],
            "properties": {
                "customer_id": {"type": "string", "example": "C100234"},
                "customer_names": {"type": "array", "items": {"type": "string"}},
                "sales_org": {"type": "string", "example": "SO-10"},
                "ship_to": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handler.SaveResultsRequest": {
            "type": "object",
            "properties": {"lines": {"type": "array", "items": {"type": "object"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "pointake API",
	Description:      "Purchase order PDF line extraction and customer resolution.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
