package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/timestamps/pack": {
            "get": {
                "tags": ["timestamps"],
                "summary": "Pack a timestamp",
                "parameters": [{"name": "ts", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/timestamps/unpack": {
            "get": {
                "tags": ["timestamps"],
                "summary": "Unpack a timestamp",
                "parameters": [{"name": "hex", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/hexdump": {
            "post": {
                "tags": ["timestamps"],
                "summary": "Hex dump a payload",
                "consumes": ["application/octet-stream"],
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/packets": {
            "get": {
                "tags": ["packets"],
                "summary": "List packets in a time window",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "post": {
                "tags": ["packets"],
                "summary": "Store a packet",
                "consumes": ["application/octet-stream"],
                "parameters": [{"name": "X-Capture-Timestamp", "in": "header", "type": "string"}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            },
            "delete": {
                "tags": ["packets"],
                "summary": "Delete packets captured before a timestamp",
                "parameters": [{"name": "before", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/packets/batch": {
            "post": {
                "tags": ["packets"],
                "summary": "Store packets in bulk",
                "consumes": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/packets/{id}": {
            "get": {
                "tags": ["packets"],
                "summary": "Get a packet",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/stats": {
            "get": {"tags": ["diagnostics"], "summary": "Capture store statistics", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "tscap REST API",
	Description:      "Timestamp codec and packet capture store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
