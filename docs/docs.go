// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/chapters/unlock": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Spend coins to unlock a locked chapter. Repeating the request never charges twice.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chapters"],
                "summary": "Unlock a chapter",
                "parameters": [
                    {
                        "description": "Chapter to unlock",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/services.UnlockRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.UnlockResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/coin-packages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "List coin packages",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.PackagesResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/paystack/initialize-transaction": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Records a pending purchase for the package and returns the Paystack checkout URL",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Start a coin purchase",
                "parameters": [
                    {
                        "description": "Package to buy",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/services.InitializeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.InitializeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/paystack/webhook": {
            "post": {
                "description": "Verifies the x-paystack-signature header and credits coins for charge.success events exactly once",
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "tags": ["payments"],
                "summary": "Paystack webhook",
                "parameters": [
                    {
                        "type": "string",
                        "description": "HMAC-SHA512 of the raw body",
                        "name": "x-paystack-signature",
                        "in": "header",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "string"}}
                }
            }
        },
        "/wallet/balance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "Get wallet balance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.BalanceResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/wallet/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Ledger entries for the caller, newest first",
                "produces": ["application/json"],
                "tags": ["wallet"],
                "summary": "List coin transactions",
                "parameters": [
                    {
                        "type": "integer",
                        "default": 20,
                        "description": "Number of entries (1-100)",
                        "name": "limit",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.HistoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.CoinPackage": {
            "type": "object",
            "properties": {
                "coinsAmount": {"type": "integer"},
                "currency": {"type": "string"},
                "id": {"type": "string"},
                "isActive": {"type": "boolean"},
                "name": {"type": "string"},
                "price": {"type": "number"}
            }
        },
        "models.LedgerEntry": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "relatedEntityId": {"type": "string"},
                "type": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "services.BalanceResponse": {
            "type": "object",
            "properties": {
                "coinBalance": {"type": "integer"},
                "earningsBalance": {"type": "integer"}
            }
        },
        "services.ErrorResponse": {
            "type": "object",
            "properties": {
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "services.HistoryResponse": {
            "type": "object",
            "properties": {
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/models.LedgerEntry"}}
            }
        },
        "services.InitializeRequest": {
            "type": "object",
            "required": ["packageId"],
            "properties": {
                "packageId": {"type": "string"}
            }
        },
        "services.InitializeResponse": {
            "type": "object",
            "properties": {
                "authorization_url": {"type": "string"}
            }
        },
        "services.PackagesResponse": {
            "type": "object",
            "properties": {
                "packages": {"type": "array", "items": {"$ref": "#/definitions/models.CoinPackage"}}
            }
        },
        "services.UnlockRequest": {
            "type": "object",
            "required": ["chapterId"],
            "properties": {
                "chapterId": {"type": "string"}
            }
        },
        "services.UnlockResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "newBalance": {"type": "integer"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	Schemes:          []string{"http", "https"},
	Title:            "NovelNest Coin Ledger API",
	Description:      "Chapter unlocks, coin purchases and Paystack reconciliation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
