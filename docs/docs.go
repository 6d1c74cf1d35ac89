// Package docs holds the generated OpenAPI document registered with swag.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed"},
                    "409": {"description": "User already exists"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"},
                    "429": {"description": "Too many attempts"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Refresh token invalid or expired"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/sessions": {
            "get": {
                "tags": ["sessions"],
                "summary": "List active sessions",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/sessions/{id}": {
            "delete": {
                "tags": ["sessions"],
                "summary": "Terminate a session",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/auth/2fa/setup": {
            "post": {
                "tags": ["two-factor"],
                "summary": "Begin two-factor setup",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/2fa/verify": {
            "post": {
                "tags": ["two-factor"],
                "summary": "Verify a two-factor code",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/2fa/enable": {
            "post": {
                "tags": ["two-factor"],
                "summary": "Enable two-factor authentication",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Code rejected"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Vetrix Clinic API",
	Description:      "Authentication, session, and permission core for the Vetrix veterinary clinic system.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
