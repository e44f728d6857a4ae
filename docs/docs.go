// Package docs is generated by swaggo/swag from the handler annotations.
// Regenerate with: swag init -g cmd/zcreens-service/main.go
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
        "/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new user",
                "parameters": [{"description": "User registration details", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/users.SignUpRequest"}}],
                "responses": {
                    "201": {"description": "User created successfully", "schema": {"$ref": "#/definitions/users.AuthResult"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Authenticate a user",
                "parameters": [{"description": "User login details", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/users.SignInRequest"}}],
                "responses": {
                    "200": {"description": "User authenticated successfully with token", "schema": {"$ref": "#/definitions/users.AuthResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current account",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/upload": {
            "get": {
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload endpoint health",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload a document",
                "parameters": [{"type": "file", "description": "PDF, PNG, JPEG or GIF", "name": "file", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Missing file or unsupported type", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "413": {"description": "File too large or insufficient storage", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Processing failed", "schema": {"$ref": "#/definitions/response.Response"}},
                    "501": {"description": "PowerPoint not implemented", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/presentation/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["presentations"],
                "summary": "Resolve a screen code",
                "parameters": [{"type": "string", "description": "Screen code", "name": "code", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Presentation not found", "schema": {"$ref": "#/definitions/response.Response"}},
                    "410": {"description": "Presentation expired", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/presentations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["presentations"],
                "summary": "List my presentations",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/presentations/{code}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["presentations"],
                "summary": "Delete a presentation",
                "parameters": [{"type": "string", "description": "Screen code", "name": "code", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Not the owner"}, "404": {"description": "Presentation not found"}}
            }
        },
        "/presentations/{code}/original": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Download the original upload",
                "parameters": [{"type": "string", "description": "Screen code", "name": "code", "in": "path", "required": true}],
                "responses": {"200": {"description": "Download URL generated successfully"}, "404": {"description": "Presentation or original not found"}}
            }
        },
        "/ws/slideshow/{code}": {
            "get": {
                "tags": ["slideshow"],
                "summary": "Watch a presentation",
                "parameters": [{"type": "string", "description": "Screen code", "name": "code", "in": "path", "required": true}],
                "responses": {"101": {"description": "Switching Protocols"}, "404": {"description": "Presentation not found"}, "410": {"description": "Presentation expired"}}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "details": {"type": "string"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "users.SignUpRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {"name": {"type": "string", "maxLength": 100}, "email": {"type": "string"}, "password": {"type": "string", "minLength": 6}}
        },
        "users.SignInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string", "minLength": 6}}
        },
        "users.AuthResult": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "user": {"type": "object"}}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "zcreens API",
	Description:      "Upload a PDF or image and play it on any screen with a six character code.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
