package plan

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of plan files, for editor completion and
// validation in CI.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := reflector.Reflect(&Plan{})
	s.Title = "surveyloom analysis plan"
	return json.MarshalIndent(s, "", "  ")
}
