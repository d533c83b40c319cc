// Package docs holds the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "description": "REST API for the bugscan reachability scanner. Jobs are queued in Redis and executed on a bounded worker pool.",
    "title": "bugscan API",
    "license": {
      "name": "MIT",
      "url": "https://opensource.org/licenses/MIT"
    },
    "version": "1.0"
  },
  "basePath": "/api/v1",
  "schemes": [
    "http"
  ],
  "securityDefinitions": {
    "ApiKeyAuth": {
      "type": "apiKey",
      "name": "Authorization",
      "in": "header"
    }
  },
  "paths": {
    "/scans": {
      "post": {
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "summary": "Create a new scan job",
        "description": "Queues hosts (or a CIDR block) x ports x methods for the selected probe mode and returns a job ID.",
        "operationId": "createScan",
        "tags": ["Scans"],
        "security": [{"ApiKeyAuth": []}],
        "parameters": [
          {
            "description": "Scan request parameters",
            "name": "scanRequest",
            "in": "body",
            "required": true,
            "schema": {"$ref": "#/definitions/CreateScanRequest"}
          }
        ],
        "responses": {
          "202": {"description": "Scan accepted", "schema": {"$ref": "#/definitions/ScanAcceptedResponse"}},
          "400": {"description": "Invalid request payload", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    },
    "/scans/{id}": {
      "get": {
        "produces": ["application/json"],
        "summary": "Get scan status and verdict lines",
        "operationId": "getScan",
        "tags": ["Scans"],
        "security": [{"ApiKeyAuth": []}],
        "parameters": [
          {
            "type": "string",
            "description": "Scan Job ID (UUID v4)",
            "name": "id",
            "in": "path",
            "required": true
          }
        ],
        "responses": {
          "200": {"description": "Job snapshot", "schema": {"$ref": "#/definitions/ScanJob"}},
          "400": {"description": "Invalid job id", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "404": {"description": "Job not found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/ErrorResponse"}},
          "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
        }
      }
    }
  },
  "definitions": {
    "CreateScanRequest": {
      "type": "object",
      "required": ["mode"],
      "properties": {
        "hosts": {"type": "array", "items": {"type": "string"}, "example": ["example.com"]},
        "cidr": {"type": "string", "example": "192.0.2.0/28"},
        "ports": {"type": "array", "items": {"type": "integer"}, "example": [80, 443]},
        "methods": {"type": "array", "items": {"type": "string"}, "example": ["head"]},
        "mode": {"type": "string", "enum": ["direct", "ping", "udp", "ssl", "ws"], "example": "direct"}
      }
    },
    "ScanAcceptedResponse": {
      "type": "object",
      "properties": {
        "id": {"type": "string", "example": "a3f5c62e-1234-4f72-a84a-1c2d3e4f5678"},
        "status": {"type": "string", "example": "pending"}
      }
    },
    "ErrorResponse": {
      "type": "object",
      "properties": {
        "error": {"type": "string", "example": "job not found"}
      }
    },
    "Stats": {
      "type": "object",
      "properties": {
        "admitted": {"type": "integer"},
        "completed": {"type": "integer"},
        "in_flight": {"type": "integer"},
        "peak": {"type": "integer"}
      }
    },
    "ScanJob": {
      "type": "object",
      "properties": {
        "id": {"type": "string", "example": "a3f5c62e-1234-4f72-a84a-1c2d3e4f5678"},
        "status": {"type": "string", "enum": ["pending", "running", "completed", "failed"]},
        "hosts": {"type": "array", "items": {"type": "string"}},
        "cidr": {"type": "string"},
        "ports": {"type": "array", "items": {"type": "integer"}},
        "methods": {"type": "array", "items": {"type": "string"}},
        "mode": {"type": "string"},
        "lines": {"type": "array", "items": {"type": "string"}, "example": ["Method: head, Host: example.com, Port: 80, Status: 200, Server: http://example.com/"]},
        "stats": {"$ref": "#/definitions/Stats"},
        "created_at": {"type": "string", "format": "date-time"},
        "completed_at": {"type": "string", "format": "date-time"},
        "error": {"type": "string"}
      }
    }
  }
}
`

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

type swaggerDoc struct{}

func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}
