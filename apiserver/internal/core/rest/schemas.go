package rest

// Request body schemas, JSON Schema draft-07. They live in the binary itself
// so a deployment is never missing them.

const projectCreateSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Project creation request",
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {
			"type": "string",
			"minLength": 1,
			"maxLength": 250
		},
		"description": {
			"type": "string",
			"maxLength": 1000
		}
	}
}`

const projectUpdateSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Project update request",
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {
			"type": "string",
			"minLength": 1,
			"maxLength": 250
		},
		"description": {
			"type": "string",
			"maxLength": 1000
		}
	}
}`

const vulnerabilityCreateSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Vulnerability creation request",
	"type": "object",
	"required": ["title", "severity"],
	"additionalProperties": false,
	"properties": {
		"title": {
			"type": "string",
			"minLength": 1,
			"maxLength": 250
		},
		"description": {
			"type": "string",
			"maxLength": 10000
		},
		"severity": {
			"type": "string",
			"enum": ["critical", "high", "medium", "low", "info"]
		},
		"status": {
			"type": "string",
			"enum": ["open", "confirmed", "fixed", "accepted"]
		},
		"cvss": {
			"type": "number",
			"minimum": 0,
			"maximum": 10
		},
		"cve": {
			"type": "string",
			"maxLength": 50
		}
	}
}`

const vulnerabilityUpdateSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Vulnerability update request",
	"type": "object",
	"required": ["title", "severity"],
	"additionalProperties": false,
	"properties": {
		"title": {
			"type": "string",
			"minLength": 1,
			"maxLength": 250
		},
		"description": {
			"type": "string",
			"maxLength": 10000
		},
		"severity": {
			"type": "string",
			"enum": ["critical", "high", "medium", "low", "info"]
		},
		"cvss": {
			"type": "number",
			"minimum": 0,
			"maximum": 10
		},
		"cve": {
			"type": "string",
			"maxLength": 50
		}
	}
}`

const vulnerabilityStatusSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Vulnerability status change request",
	"type": "object",
	"required": ["status"],
	"additionalProperties": false,
	"properties": {
		"status": {
			"type": "string",
			"enum": ["open", "confirmed", "fixed", "accepted"]
		}
	}
}`
