package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Round Scheduler API",
        "description": "Tournament scheduling and metaheuristic optimization service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Tournaments", "description": "Tournament import and lookup"},
        {"name": "Schedules", "description": "Schedule versions, evaluation and publishing"},
        {"name": "Optimization", "description": "Asynchronous schedule optimization jobs"},
        {"name": "Exports", "description": "Schedule exports and signed downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/tournaments": {
            "get": {
                "tags": ["Tournaments"],
                "summary": "List tournaments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tournaments"],
                "summary": "Import a tournament",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportTournamentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tournaments/{id}": {
            "get": {
                "tags": ["Tournaments"],
                "summary": "Get tournament",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Tournaments"],
                "summary": "Delete tournament",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule versions",
                "parameters": [
                    {"name": "tournamentId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get schedule with fixtures and violations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete schedule version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/schedules/{id}/evaluate": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Re-evaluate a schedule against a rule configuration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"type": "array", "items": {"$ref": "#/definitions/RuleConfig"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/publish": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Publish a schedule version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/schedules/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a schedule as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported file via signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/optimize": {
            "post": {
                "tags": ["Optimization"],
                "summary": "Start an optimization job",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/optimize/{id}": {
            "get": {
                "tags": ["Optimization"],
                "summary": "Get optimization job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Optimization"],
                "summary": "Cancel an optimization job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "ImportTournamentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "divisions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/DivisionImport"}
                },
                "matches": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/MatchImport"}
                }
            },
            "required": ["name", "divisions", "matches"]
        },
        "DivisionImport": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "teams": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/TeamImport"}
                }
            },
            "required": ["name", "teams"]
        },
        "TeamImport": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "players": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name"]
        },
        "MatchImport": {
            "type": "object",
            "properties": {
                "timeSlot": {"type": "integer"},
                "field": {"type": "string"},
                "division": {"type": "string"},
                "team1": {"type": "string"},
                "team2": {"type": "string"},
                "referee": {"type": "string"},
                "refereeDivision": {"type": "string"},
                "activity": {"type": "string"},
                "locked": {"type": "boolean"}
            },
            "required": ["team1", "team2", "division"]
        },
        "RuleConfig": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "priority": {"type": "number"},
                "params": {"type": "object"}
            },
            "required": ["name", "priority"]
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "schedule_id": {"type": "string"},
                "strategy": {"type": "string", "enum": ["annealing", "genetic", "strategic"]},
                "iterations": {"type": "integer"},
                "seed": {"type": "integer"},
                "rules": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/RuleConfig"}
                }
            },
            "required": ["schedule_id"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "report": {"type": "string", "enum": ["fixtures", "violations"]}
            },
            "required": ["format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
