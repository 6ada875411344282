package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Community Complaint API",
        "description": "Complaint lifecycle engine: filing, triage, assignment, resolution and live updates",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Complaints", "description": "Complaint lifecycle"},
        {"name": "Assignments", "description": "Staff assignment and history"},
        {"name": "Live", "description": "Websocket feed of committed changes"}
    ],
    "paths": {
        "/complaints": {
            "post": {
                "tags": ["Complaints"],
                "summary": "File a complaint",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateComplaintRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ComplaintEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}": {
            "get": {
                "tags": ["Complaints"],
                "summary": "Get a complaint",
                "description": "Residents never see internal notes. The ETag header carries the version.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ComplaintEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Complaints"],
                "summary": "Apply a partial update",
                "description": "Only fields present in the body are changed. Send the version you read in If-Match or expectedVersion.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "If-Match", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateComplaintRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ComplaintEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict or closed complaint", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid status transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}/assignment": {
            "put": {
                "tags": ["Assignments"],
                "summary": "Assign a complaint to a staff member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "If-Match", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignComplaintRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict or closed complaint", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove the current assignee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "If-Match", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ComplaintEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict or closed complaint", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List the assignment history of a complaint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}/notes": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Add a note",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "If-Match", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ComplaintEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict or closed complaint", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}/feedback": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Rate a resolved complaint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "If-Match", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitFeedbackRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ComplaintEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/complaints/{id}/live": {
            "get": {
                "tags": ["Live"],
                "summary": "Follow a complaint live",
                "description": "Websocket feed. The first frame is a snapshot; later frames carry every committed change in version order.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "access_token", "in": "query", "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching protocols"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Note": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "content": {"type": "string"},
                "authorId": {"type": "string"},
                "internal": {"type": "boolean"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "Feedback": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comment": {"type": "string"},
                "submittedAt": {"type": "string", "format": "date-time"}
            }
        },
        "Complaint": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string", "enum": ["maintenance", "noise", "security", "cleanliness", "parking", "utilities", "other"]},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "urgent"]},
                "status": {"type": "string", "enum": ["pending", "in_progress", "resolved", "cancelled"]},
                "submitterId": {"type": "string"},
                "assigneeId": {"type": "string"},
                "notes": {"type": "array", "items": {"$ref": "#/definitions/Note"}},
                "attachments": {"type": "array", "items": {"type": "string"}},
                "resolvedAt": {"type": "string", "format": "date-time"},
                "feedback": {"$ref": "#/definitions/Feedback"},
                "version": {"type": "integer"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "AssignmentRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "complaintId": {"type": "string"},
                "assigneeId": {"type": "string"},
                "assignerId": {"type": "string"},
                "assignedAt": {"type": "string", "format": "date-time"},
                "dueDate": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["active", "completed", "cancelled"]},
                "note": {"type": "string"}
            }
        },
        "CreateComplaintRequest": {
            "type": "object",
            "required": ["title", "description", "category"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "attachments": {"type": "array", "items": {"type": "string"}},
                "submitterId": {"type": "string"}
            }
        },
        "UpdateComplaintRequest": {
            "type": "object",
            "properties": {
                "expectedVersion": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "attachments": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "assignee": {
                    "type": "object",
                    "properties": {
                        "assigneeId": {"type": "string"},
                        "dueDate": {"type": "string", "format": "date-time"},
                        "note": {"type": "string"}
                    }
                },
                "note": {
                    "type": "object",
                    "properties": {
                        "content": {"type": "string"},
                        "internal": {"type": "boolean"}
                    }
                },
                "feedback": {
                    "type": "object",
                    "properties": {
                        "rating": {"type": "integer"},
                        "comment": {"type": "string"}
                    }
                }
            }
        },
        "AssignComplaintRequest": {
            "type": "object",
            "required": ["assigneeId"],
            "properties": {
                "expectedVersion": {"type": "integer"},
                "assigneeId": {"type": "string"},
                "dueDate": {"type": "string", "format": "date-time"},
                "note": {"type": "string"}
            }
        },
        "AddNoteRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "expectedVersion": {"type": "integer"},
                "content": {"type": "string"},
                "internal": {"type": "boolean"}
            }
        },
        "SubmitFeedbackRequest": {
            "type": "object",
            "required": ["rating"],
            "properties": {
                "expectedVersion": {"type": "integer"},
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comment": {"type": "string"}
            }
        },
        "FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/FieldError"}}
            }
        },
        "ComplaintEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Complaint"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
