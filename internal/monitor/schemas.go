package monitor

// HoldRequestSchema is the contract for POST /bookeo/holds bodies. The
// payment_info block is intentionally not required here: its absence is a
// business-rule failure owned by the orchestrator, which answers with the
// gateway-sourced envelope.
const HoldRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["eventId", "productId", "customerId", "participants"],
  "properties": {
    "eventId":    {"type": "string", "minLength": 1},
    "productId":  {"type": "string", "minLength": 1},
    "customerId": {"type": "string", "minLength": 1},
    "holdId":     {"type": "string"},
    "lang":       {"type": "string"},
    "participants": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["peopleCategoryId", "number"],
        "properties": {
          "peopleCategoryId": {"type": "string", "minLength": 1},
          "number":           {"type": "integer", "minimum": 1}
        }
      }
    },
    "payment_info": {
      "type": "object",
      "properties": {
        "description":   {"type": "string"},
        "invoiceNumber": {"type": "string"}
      }
    }
  }
}`
