package rest

// Request body schemas enforced before any endpoint logic runs. They live in
// the binary itself so a deployment is never missing them.

const localLoginSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "LocalLoginRequest",
	"type": "object",
	"required": ["username", "password"],
	"additionalProperties": false,
	"properties": {
		"username": {
			"type": "string",
			"minLength": 1
		},
		"password": {
			"type": "string",
			"minLength": 1
		}
	}
}
`

const userCreateSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "UserCreateRequest",
	"type": "object",
	"required": ["username", "password", "role"],
	"additionalProperties": false,
	"properties": {
		"username": {
			"type": "string",
			"minLength": 1,
			"maxLength": 100
		},
		"password": {
			"type": "string",
			"minLength": 8
		},
		"role": {
			"type": "string",
			"enum": ["admin", "pentester", "client"]
		},
		"email": {
			"type": "string"
		},
		"firstName": {
			"type": "string"
		},
		"lastName": {
			"type": "string"
		}
	}
}
`

const userUpdateSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "UserUpdateRequest",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"email": {
			"type": "string"
		},
		"firstName": {
			"type": "string"
		},
		"lastName": {
			"type": "string"
		},
		"picture": {
			"type": "string"
		}
	}
}
`

const userRoleSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "UserRoleRequest",
	"type": "object",
	"required": ["role"],
	"additionalProperties": false,
	"properties": {
		"role": {
			"type": "string",
			"enum": ["admin", "pentester", "client"]
		}
	}
}
`
