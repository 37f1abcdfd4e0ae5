package snapshot

// Schemas are deliberately loose: they pin the structural shape of the
// generator's output without rejecting the optional fields older snapshot
// generations omit.

const summarySchema = `{
  "type": "object",
  "properties": {
    "generatedAt": {"type": "string"},
    "global": {
      "type": "object",
      "properties": {
        "totalUsdc": {"type": "number"}
      }
    }
  }
}`

const receiptsSchema = `{
  "type": "object",
  "properties": {
    "generatedAt": {"type": "string"},
    "count": {"type": "integer"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["tx"],
        "properties": {
          "tx": {"type": "string", "minLength": 1},
          "amountUsdc": {"type": "number"},
          "teamId": {"type": ["string", "null"]},
          "memo": {"type": ["string", "null"]},
          "createdAt": {"type": "string"}
        }
      }
    }
  }
}`
