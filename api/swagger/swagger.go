package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GymGrid API",
        "description": "Recurring class grid and attendance gateway",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grid", "description": "Projected class occurrence grid"},
        {"name": "Attendance", "description": "Per-occurrence presence toggling"},
        {"name": "Templates", "description": "Recurring class template management"}
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
        "/api/v1/units/{id}/occurrences": {
            "get": {
                "tags": ["Grid"],
                "summary": "Project class occurrences for a unit and date window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/{instanceId}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Get the merged view of one occurrence",
                "parameters": [
                    {"name": "instanceId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Template not found"}
                }
            }
        },
        "/api/v1/attendance/{instanceId}/present": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a student present for one occurrence",
                "parameters": [
                    {"name": "instanceId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TogglePresenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Transient storage failure, safe to retry"}
                }
            }
        },
        "/api/v1/attendance/{instanceId}/absent": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a student absent for one occurrence",
                "parameters": [
                    {"name": "instanceId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TogglePresenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "No record existed; nothing to remove"}
                }
            }
        },
        "/api/v1/class-templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List class templates",
                "parameters": [
                    {"name": "unitId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Templates"],
                "summary": "Create class template",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/class-templates/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get class template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Templates"],
                "summary": "Update class template",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Templates"],
                "summary": "Delete class template",
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
        "ClassTemplate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "unit_id": {"type": "string"},
                "name": {"type": "string"},
                "teacher_id": {"type": "string"},
                "teacher_name": {"type": "string"},
                "days_of_week": {"type": "array", "items": {"type": "integer"}},
                "start_hour": {"type": "integer"},
                "start_minute": {"type": "integer"},
                "duration_minutes": {"type": "integer"},
                "capacity": {"type": "integer"},
                "roster": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "OccurrenceView": {
            "type": "object",
            "properties": {
                "instance_id": {"type": "string"},
                "unit_id": {"type": "string"},
                "name": {"type": "string"},
                "teacher_id": {"type": "string"},
                "teacher_name": {"type": "string"},
                "date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "capacity": {"type": "integer"},
                "roster": {"type": "array", "items": {"type": "string"}},
                "present_student_ids": {"type": "array", "items": {"type": "string"}},
                "present_count": {"type": "integer"},
                "occupancy_pct": {"type": "number"},
                "recorded": {"type": "boolean"}
            }
        },
        "CreateTemplateRequest": {
            "type": "object",
            "properties": {
                "unit_id": {"type": "string"},
                "name": {"type": "string"},
                "teacher_id": {"type": "string"},
                "teacher_name": {"type": "string"},
                "days_of_week": {"type": "array", "items": {"type": "integer"}},
                "start_hour": {"type": "integer"},
                "start_minute": {"type": "integer"},
                "duration_minutes": {"type": "integer"},
                "capacity": {"type": "integer"},
                "roster": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["unit_id", "name", "teacher_id", "teacher_name", "days_of_week", "duration_minutes"]
        },
        "TogglePresenceRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"}
            },
            "required": ["student_id"]
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
                "status": {"type": "integer"},
                "retryable": {"type": "boolean"}
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
