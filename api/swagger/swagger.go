package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Postgrad Supervision API",
        "description": "Document submission, review and weekly progress tracking for postgraduate supervision",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Auth", "description": "Registration, login and account recovery"},
        {"name": "Documents", "description": "Document upload and weekly submissions"},
        {"name": "Reviews", "description": "Supervisor feedback and approval"},
        {"name": "Notifications", "description": "In-app notifications"},
        {"name": "Progress", "description": "Weekly progress views and exports"},
        {"name": "Assignments", "description": "Supervisor to student links"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register an account",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "EMAIL_NOT_FOUND or INVALID_PASSWORD", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "ROLE_MISMATCH, EMAIL_NOT_VERIFIED or ACCOUNT_INACTIVE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/change-password": {
            "put": {
                "tags": ["Auth"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Old password does not match"}}
            }
        },
        "/auth/verify-email": {
            "get": {
                "tags": ["Auth"],
                "summary": "Verify an email address",
                "parameters": [{"in": "query", "name": "token", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "INVALID_TOKEN"}}
            }
        },
        "/auth/resend-verification": {
            "post": {"tags": ["Auth"], "summary": "Resend the verification email", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/forgot-password": {
            "post": {"tags": ["Auth"], "summary": "Request a password reset code", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/verify-reset-code": {
            "post": {"tags": ["Auth"], "summary": "Check a password reset code", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/reset-password": {
            "post": {"tags": ["Auth"], "summary": "Reset the password with a code", "responses": {"200": {"description": "OK"}}}
        },
        "/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List visible documents",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "student_id", "type": "string"},
                    {"in": "query", "name": "type", "type": "string"},
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "week_number", "type": "integer"},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "page_size", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a document",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "file", "type": "file", "required": true},
                    {"in": "formData", "name": "title", "type": "string", "required": true},
                    {"in": "formData", "name": "description", "type": "string"},
                    {"in": "formData", "name": "type", "type": "string", "enum": ["submission", "resource"]},
                    {"in": "formData", "name": "week_number", "type": "integer"},
                    {"in": "formData", "name": "student_id", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_FILE_TYPE or FILE_TOO_LARGE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {"tags": ["Documents"], "summary": "Get a document", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["Documents"], "summary": "Update document metadata", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Documents"], "summary": "Delete a document", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/documents/{id}/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download the stored file",
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "parameters": [{"in": "query", "name": "token", "type": "string"}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Forbidden"}}
            }
        },
        "/documents/{id}/feedback": {
            "get": {"tags": ["Reviews"], "summary": "List feedback on a document", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Reviews"], "summary": "Leave feedback", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "403": {"description": "Not the student's supervisor"}}}
        },
        "/documents/{id}/approve": {
            "post": {"tags": ["Reviews"], "summary": "Approve a document", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List my notifications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "unread", "type": "boolean"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {"tags": ["Notifications"], "summary": "Clear my notifications", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{id}/read": {
            "put": {"tags": ["Notifications"], "summary": "Mark a notification as read", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Updated"}}}
        },
        "/notifications/read-all": {
            "put": {"tags": ["Notifications"], "summary": "Mark all notifications as read", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{id}": {
            "delete": {"tags": ["Notifications"], "summary": "Delete a notification", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/students/{id}/progress": {
            "get": {"tags": ["Progress"], "summary": "Weekly progress of a student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/students/{id}/progress/report": {
            "get": {
                "tags": ["Progress"],
                "summary": "Export a progress report",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf", "text/csv"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["pdf", "csv"]}],
                "responses": {"200": {"description": "Report file"}}
            }
        },
        "/students/{id}/supervisors": {
            "get": {"tags": ["Assignments"], "summary": "Direct and joined supervisors of a student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/progress/me": {
            "get": {"tags": ["Progress"], "summary": "Weekly progress of the signed-in student", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/supervisors/me/students": {
            "get": {"tags": ["Progress"], "summary": "Students of the signed-in supervisor", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/assignments": {
            "post": {"tags": ["Assignments"], "summary": "Assign a supervisor to a student", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}], "responses": {"201": {"description": "Created"}, "409": {"description": "Supervisor at capacity"}}},
            "delete": {"tags": ["Assignments"], "summary": "Remove a supervisor from a student", "security": [{"BearerAuth": []}], "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not linked"}}}
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "name", "role"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "supervisor", "administrator"]},
                "phone": {"type": "string"},
                "program": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "AssignmentRequest": {
            "type": "object",
            "required": ["student_id", "supervisor_id"],
            "properties": {
                "student_id": {"type": "string"},
                "supervisor_id": {"type": "string"},
                "primary": {"type": "boolean"}
            }
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
                "details": {"type": "object"}
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
