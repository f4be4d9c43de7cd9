package web

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"gymdash/internal/domain/validation"
)

// rootField is how gojsonschema names the document root.
const rootField = "(root)"

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaSet holds the compiled request-body schemas, keyed by file name
// without extension (a kind such as "members", or an action such as
// "payment-status").
type schemaSet struct {
	byName map[string]*gojsonschema.Schema
}

func loadSchemas() (*schemaSet, error) {
	files, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		return nil, err
	}
	set := &schemaSet{byName: make(map[string]*gojsonschema.Schema, len(files))}
	for _, f := range files {
		raw, err := schemaFS.ReadFile(f)
		if err != nil {
			return nil, err
		}
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", f, err)
		}
		set.byName[strings.TrimSuffix(path.Base(f), ".json")] = compiled
	}
	return set, nil
}

// validate checks raw against the named schema. Schema violations come back
// as validation.Errors so the API reports them the same way as domain
// validation; unparseable JSON is a bad request.
// PRE: name was loaded
func (s *schemaSet) validate(name string, raw []byte) error {
	schema, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("no schema named %q", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if result.Valid() {
		return nil
	}
	var errs validation.Errors
	for _, re := range result.Errors() {
		errs.Add(schemaField(re), "%s", re.Description())
	}
	return errs
}

// schemaField names the offending field. Missing required properties are
// reported against the property itself rather than its parent object.
func schemaField(re gojsonschema.ResultError) string {
	field := re.Field()
	if re.Type() == "required" {
		if p, ok := re.Details()["property"].(string); ok && !strings.HasSuffix(field, p) {
			field += "." + p
		}
	}
	return strings.TrimPrefix(field, rootField+".")
}
