package store

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// shootSchema validates the Shoot document shape at the read boundary.
// Only id is required: missing optional fields default rather than error,
// but present fields must have the right types so malformed documents are
// reported as corrupt instead of failing deeper in the call stack.
const shootSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"label": {"type": "string"},
		"createdAt": {"type": "string"},
		"updatedAt": {"type": "string"},
		"frames": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"createdAt": {"type": "string"},
					"params": {"type": "object"},
					"snapshots": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["id", "storageRef"],
							"properties": {
								"id": {"type": "string", "minLength": 1},
								"createdAt": {"type": "string"},
								"meta": {"type": "object"},
								"storageRef": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		}
	}
}`

var compiledShootSchema = jsonschema.MustCompileString("shoot.json", shootSchema)

// decodeShoot parses and validates raw document bytes into a Shoot.
// Any parse or schema failure is reported as ErrCorrupt.
func decodeShoot(data []byte) (*Shoot, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := compiledShootSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var shoot Shoot
	if err := json.Unmarshal(data, &shoot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if shoot.Frames == nil {
		shoot.Frames = []Frame{}
	}
	for i := range shoot.Frames {
		if shoot.Frames[i].Snapshots == nil {
			shoot.Frames[i].Snapshots = []Snapshot{}
		}
	}
	return &shoot, nil
}

// loadShoot reads a Shoot document from path. A missing file maps to
// ErrNotFound; anything unparseable maps to ErrCorrupt.
func loadShoot(path string) (*Shoot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read shoot document: %w", err)
	}
	return decodeShoot(data)
}

// idPattern matches ids that are safe to embed in filenames. The store
// mints uuid ids itself; this guards lookups against traversal attempts.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func validID(id string) bool {
	return id != "" && len(id) <= 128 && idPattern.MatchString(id)
}
