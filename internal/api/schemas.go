package api

const ingestSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["cid", "teamId"],
  "properties": {
    "cid": {"type": "string", "minLength": 1, "maxLength": 255},
    "tx": {"type": "string", "maxLength": 255},
    "sha256": {"type": "string", "maxLength": 128},
    "teamId": {"type": "string", "minLength": 1, "maxLength": 128},
    "source": {"type": "string", "maxLength": 128},
    "points": {"type": "integer", "minimum": 0},
    "status": {"type": "string", "maxLength": 64}
  }
}`
