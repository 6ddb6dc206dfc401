package export

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bestres/internal/dataset"
	"github.com/sells-group/bestres/internal/model"
)

// Report is the YAML summary written after a build.
type Report struct {
	Run      *model.Run                  `yaml:"run"`
	Outputs  map[string]string           `yaml:"outputs,omitempty"`
	Rejected []dataset.OrganismRejection `yaml:"organism_rejections,omitempty"`
}

// WriteReport writes r as YAML to path.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "export: marshal report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write report %s", path)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read report %s", path)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "export: parse report %s", path)
	}
	return &r, nil
}
