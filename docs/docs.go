// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package docs registers the Swagger document served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Get service health",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Service is running", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/train": {
            "post": {
                "tags": ["Training"],
                "summary": "Train a model",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.TrainRequest"}}],
                "responses": {
                    "200": {"description": "Model trained", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "409": {"description": "Training already in progress", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "502": {"description": "Dataset could not be retrieved or parsed", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "500": {"description": "Training failed", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/training/status": {
            "get": {
                "tags": ["Training"],
                "summary": "Get training status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/model/info": {
            "get": {
                "tags": ["Model"],
                "summary": "Get model info",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "No model trained yet", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/model/versions": {
            "get": {
                "tags": ["Model"],
                "summary": "List model versions",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}}
            }
        },
        "/model/activate/{version}": {
            "post": {
                "tags": ["Model"],
                "summary": "Activate a model version",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Model version, or latest to remove the pin", "name": "version", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Invalid version", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Unknown version", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/reload-model": {
            "post": {
                "tags": ["Model"],
                "summary": "Reload the model",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "No model trained yet", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "500": {"description": "Reload failed", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/api/recommender": {
            "post": {
                "tags": ["Recommendations"],
                "summary": "Recommend songs",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/api.RecommendRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "No model loaded", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {}
            }
        },
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/api.APIError"},
                "metadata": {"$ref": "#/definitions/api.Metadata"}
            }
        },
        "api.Metadata": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"},
                "query_time_ms": {"type": "integer"}
            }
        },
        "api.RecommendRequest": {
            "type": "object",
            "required": ["songs"],
            "properties": {
                "songs": {"type": "array", "items": {"type": "string"}, "example": ["Yesterday", "Hey Jude"]}
            }
        },
        "api.TrainRequest": {
            "type": "object",
            "required": ["dataset_url"],
            "properties": {
                "dataset_url": {"type": "string", "example": "https://example.com/playlists.csv"},
                "dataset_version": {"type": "string"},
                "dataset_name": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Setlist API",
	Description:      "Association-rule song recommendations mined from playlists.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
