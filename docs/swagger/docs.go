// Package swagger registers the OpenAPI document of the media API with swag.
// Regenerate with: swag init -g cmd/api/main.go -o docs/swagger
package swagger

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
        "/files": {
            "get": {
                "description": "Returns file records, newest first.",
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List files",
                "parameters": [
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Records to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores the file in the configured bucket and returns its record with the public URL.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Upload a file",
                "parameters": [
                    {"type": "file", "description": "File to upload", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        },
        "/files/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "Get a file",
                "parameters": [
                    {"type": "string", "description": "File ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Removes the stored object and its record.",
                "tags": ["files"],
                "summary": "Delete a file",
                "parameters": [
                    {"type": "string", "description": "File ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Envelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "media.File": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "ext": {"type": "string"},
                "hash": {"type": "string"},
                "id": {"type": "string"},
                "mime": {"type": "string"},
                "name": {"type": "string"},
                "size": {"type": "number"},
                "storageKey": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "response.Envelope": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: **Bearer {token}**",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Media Storage API",
	Description:      "Media library backed by Supabase Storage or any S3-compatible service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
