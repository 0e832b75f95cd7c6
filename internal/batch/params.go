package batch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/objectstore"
)

// Params are the job arguments, named the way the job runner passes them.
type Params struct {
	JobName           string
	RawPath           string
	OutputPath        string
	CatalogDatabase   string
	RawTable          string
	RefinedTable      string
	IngestionManifest string
}

// Validate reports the first missing required argument. The raw dataset may
// be given by path, by catalog table, or both.
func (p Params) Validate() error {
	required := []struct {
		key, value string
	}{
		{"--JOB_NAME", p.JobName},
		{"--output_path", p.OutputPath},
		{"--catalog_database", p.CatalogDatabase},
		{"--refined_table", p.RefinedTable},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &apperr.ConfigurationError{Key: r.key}
		}
	}
	if p.RawPath == "" && p.RawTable == "" {
		return &apperr.ConfigurationError{Key: "--raw_path"}
	}
	return nil
}

// Manifest decodes the objects that triggered the run. An empty argument is
// an empty manifest.
func (p Params) Manifest() ([]objectstore.Object, error) {
	if strings.TrimSpace(p.IngestionManifest) == "" {
		return nil, nil
	}
	var objects []objectstore.Object
	if err := json.Unmarshal([]byte(p.IngestionManifest), &objects); err != nil {
		return nil, &apperr.ValidationError{Msg: fmt.Sprintf("invalid ingestion manifest: %v", err)}
	}
	return objects, nil
}
