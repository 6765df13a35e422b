/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// baseCredentialSchema validates the JSON shape shared by both data model
// versions; version-specific temporal field names are both allowed and the
// split is enforced by the typed parser.
const baseCredentialSchema = `{
  "required": [
    "@context",
    "type",
    "credentialSubject",
    "issuer"
  ],
  "properties": {
    "@context": {
      "anyOf": [
        {
          "type": "string"
        },
        {
          "type": "array",
          "minItems": 1,
          "items": [
            {
              "type": "string"
            }
          ],
          "additionalItems": {
            "anyOf": [
              {
                "type": "object"
              },
              {
                "type": "string"
              }
            ]
          }
        }
      ]
    },
    "id": {
      "type": "string"
    },
    "type": {
      "oneOf": [
        {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "string"
          }
        },
        {
          "type": "string"
        }
      ]
    },
    "credentialSubject": {
      "anyOf": [
        {
          "type": "array"
        },
        {
          "type": "object"
        },
        {
          "type": "string"
        }
      ]
    },
    "issuer": {
      "anyOf": [
        {
          "type": "string",
          "format": "uri"
        },
        {
          "type": "object",
          "required": [
            "id"
          ],
          "properties": {
            "id": {
              "type": "string",
              "format": "uri"
            }
          }
        }
      ]
    },
    "issuanceDate": {
      "type": "string",
      "format": "date-time"
    },
    "expirationDate": {
      "type": ["string", "null"],
      "format": "date-time"
    },
    "validFrom": {
      "type": "string",
      "format": "date-time"
    },
    "validUntil": {
      "type": ["string", "null"],
      "format": "date-time"
    },
    "credentialStatus": {
      "$ref": "#/definitions/typedIDs"
    },
    "credentialSchema": {
      "$ref": "#/definitions/typedIDs"
    },
    "nonTransferable": {
      "type": "boolean"
    }
  },
  "definitions": {
    "typedID": {
      "type": "object",
      "required": [
        "type"
      ],
      "properties": {
        "id": {
          "type": "string",
          "format": "uri"
        },
        "type": {
          "anyOf": [
            {
              "type": "string"
            },
            {
              "type": "array",
              "items": {
                "type": "string"
              }
            }
          ]
        }
      }
    },
    "typedIDs": {
      "anyOf": [
        {
          "$ref": "#/definitions/typedID"
        },
        {
          "type": "array",
          "items": {
            "$ref": "#/definitions/typedID"
          }
        },
        {
          "type": "null"
        }
      ]
    }
  }
}`

var credentialSchemaLoader = gojsonschema.NewStringLoader(baseCredentialSchema)

// checkCredentialSchema validates a credential JSON object against the base
// schema. Returns nil when the object conforms.
func checkCredentialSchema(obj JSONObject, _ SpecVersion) error {
	result, err := gojsonschema.Validate(credentialSchemaLoader, gojsonschema.NewGoLoader(obj))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("schema validation: %s", describeSchemaErrors(result))
	}

	return nil
}

func describeSchemaErrors(result *gojsonschema.Result) string {
	msg := ""

	for i, desc := range result.Errors() {
		if i > 0 {
			msg += ", "
		}

		msg += desc.String()
	}

	return msg
}
