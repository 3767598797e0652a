// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go
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
		"/trips/{tripId}/members": {
			"get": {
				"tags": [
					"trips"
				],
				"summary": "List trip members",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/trips/{tripId}/expenses": {
			"post": {
				"tags": [
					"expenses"
				],
				"summary": "Create expense",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					},
					{
						"description": "Expense",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			},
			"get": {
				"tags": [
					"expenses"
				],
				"summary": "List trip expenses",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Category",
						"name": "category",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Status",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "Payer user ID",
						"name": "paid_by",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Earliest date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Latest date (YYYY-MM-DD)",
						"name": "to",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/trips/{tripId}/balances": {
			"get": {
				"tags": [
					"balances"
				],
				"summary": "Get trip balances",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/trips/{tripId}/settlements": {
			"post": {
				"tags": [
					"settlements"
				],
				"summary": "Record a settlement",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					},
					{
						"description": "Settlement",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			},
			"get": {
				"tags": [
					"settlements"
				],
				"summary": "List trip settlements",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					},
					{
						"type": "boolean",
						"description": "Filter by confirmation state",
						"name": "confirmed",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/trips/{tripId}/settlements/plan": {
			"get": {
				"tags": [
					"settlements"
				],
				"summary": "Propose settlements",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "pairwise or minimal",
						"name": "algorithm",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/trips/{tripId}/summary": {
			"get": {
				"tags": [
					"summary"
				],
				"summary": "Get trip summary",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/trips/{tripId}/export": {
			"get": {
				"tags": [
					"summary"
				],
				"summary": "Export trip data",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Trip ID",
						"name": "tripId",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "json or csv",
						"name": "format",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Earliest expense date (YYYY-MM-DD)",
						"name": "from",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Latest expense date (YYYY-MM-DD)",
						"name": "to",
						"in": "query",
						"required": false
					},
					{
						"type": "array",
						"items": {
							"type": "string"
						},
						"collectionFormat": "multi",
						"description": "Categories to include",
						"name": "category",
						"in": "query",
						"required": false
					},
					{
						"type": "boolean",
						"description": "Add member balances",
						"name": "include_balances",
						"in": "query",
						"required": false
					},
					{
						"type": "boolean",
						"description": "Add recorded settlements",
						"name": "include_settlements",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/expenses/categories": {
			"get": {
				"tags": [
					"expenses"
				],
				"summary": "List expense categories",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/expenses/statuses": {
			"get": {
				"tags": [
					"expenses"
				],
				"summary": "List expense statuses",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/expenses/currencies": {
			"get": {
				"tags": [
					"expenses"
				],
				"summary": "List supported currencies",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/expenses/{id}": {
			"get": {
				"tags": [
					"expenses"
				],
				"summary": "Get expense by ID",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Expense ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			},
			"put": {
				"tags": [
					"expenses"
				],
				"summary": "Update expense",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Expense ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Expense changes",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"expenses"
				],
				"summary": "Delete expense",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Expense ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/expenses/{id}/splits": {
			"put": {
				"tags": [
					"expenses"
				],
				"summary": "Replace expense splits",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Expense ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Split amounts",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/expenses/{id}/splits/{userId}/pay": {
			"post": {
				"tags": [
					"expenses"
				],
				"summary": "Mark a split paid",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Expense ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Split user ID",
						"name": "userId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/settlements/{id}": {
			"get": {
				"tags": [
					"settlements"
				],
				"summary": "Get settlement by ID",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Settlement ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/settlements/{id}/confirm": {
			"post": {
				"tags": [
					"settlements"
				],
				"summary": "Confirm settlement",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Settlement ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/notifications": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "List notifications",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "Items per page",
						"name": "per_page",
						"in": "query",
						"required": false
					},
					{
						"type": "boolean",
						"description": "Only unread notifications",
						"name": "unread_only",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/notifications/unread-count": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "Count unread notifications",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/notifications/{id}/read": {
			"post": {
				"tags": [
					"notifications"
				],
				"summary": "Mark notification as read",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					},
					{
						"type": "integer",
						"description": "Notification ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		},
		"/notifications/read-all": {
			"post": {
				"tags": [
					"notifications"
				],
				"summary": "Mark all notifications as read",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Acting user",
						"name": "X-User-ID",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.APIResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"response.APIError": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"response.APIResponse": {
			"type": "object",
			"properties": {
				"data": {},
				"error": {
					"$ref": "#/definitions/response.APIError"
				},
				"meta": {
					"$ref": "#/definitions/response.Meta"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"response.Meta": {
			"type": "object",
			"properties": {
				"page": {
					"type": "integer"
				},
				"per_page": {
					"type": "integer"
				},
				"total": {
					"type": "integer"
				},
				"total_pages": {
					"type": "integer"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/api/v1",
	Schemes:		  []string{},
	Title:			"Tripsplit API",
	Description:	  "Shared trip expenses, balances and debt settlement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
