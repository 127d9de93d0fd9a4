// Package api registers the swagger specification served under
// /swagger/.
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
    "paths": {
        "/watch": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Verification"],
                "summary": "Ad Landing Page",
                "parameters": [
                    {"type": "string", "name": "data", "in": "query", "required": true, "description": "Encoded token"}
                ],
                "responses": {
                    "200": {"description": "redirect page"},
                    "400": {"description": "invalid link"}
                }
            }
        },
        "/verify": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Verification"],
                "summary": "Token Redemption Endpoint",
                "parameters": [
                    {"type": "string", "name": "data", "in": "query", "required": true, "description": "Encoded token"}
                ],
                "responses": {
                    "200": {"description": "success page"},
                    "400": {"description": "malformed or forged token"},
                    "404": {"description": "token not found"},
                    "409": {"description": "token already used"},
                    "410": {"description": "token expired"}
                }
            }
        },
        "/v1/tokens/issue": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Internal"],
                "summary": "Issue Access Token",
                "responses": {
                    "200": {"description": "subject_id, url"},
                    "400": {"description": "invalid request"},
                    "500": {"description": "server error"}
                }
            }
        },
        "/v1/access": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Internal"],
                "summary": "Access Query",
                "parameters": [
                    {"type": "string", "name": "subject_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "subject_id, has_access"},
                    "400": {"description": "invalid request"}
                }
            }
        },
        "/v1/admin/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Internal"],
                "summary": "Operational Stats",
                "responses": {
                    "200": {"description": "subjects, tokens_issued, tokens_redeemed, active_grants"}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness Probe",
                "responses": {"200": {"description": "status, uptime, version"}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Probe",
                "responses": {
                    "200": {"description": "status, uptime, version, checks"},
                    "503": {"description": "service not ready"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Admin JWT. Format: \"Bearer {token}\"."
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Filegate Ad-Gate Service API",
	Description:      "Ad-gated access-token service for the Telegram file-share bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
