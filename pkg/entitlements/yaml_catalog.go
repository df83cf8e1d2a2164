package entitlements

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orbion/subledger/pkg/subscription"
)

// yamlPlans is the file layout:
//
//	segments:
//	  pyme:
//	    inbound:
//	      recepciones_mes: 2000
type yamlPlans struct {
	Segments map[string]map[string]map[string]int64 `yaml:"segments"`
}

// ParseYAML decodes a plan catalog document.
func ParseYAML(data []byte) (Plans, error) {
	var doc yamlPlans
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	if len(doc.Segments) == 0 {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("no segments defined"))
	}

	plans := make(Plans, len(doc.Segments))
	for segment, modules := range doc.Segments {
		mods := make(map[subscription.Module]Limits, len(modules))
		for name, limits := range modules {
			m, err := subscription.ParseModule(name)
			if err != nil {
				return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("segment %q: %w", segment, err))
			}
			mods[m] = Limits(limits)
		}
		plans[segment] = mods
	}
	if _, ok := plans[DefaultSegment]; !ok {
		return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("default segment %q is missing", DefaultSegment))
	}
	return plans, nil
}

type yamlCatalog struct {
	path string
}

// NewYAMLCatalog returns a Catalog that reads the YAML file at path on every Load,
// so edits take effect without a restart.
func NewYAMLCatalog(path string) Catalog {
	return &yamlCatalog{path: path}
}

func (c *yamlCatalog) Load(context.Context) (Plans, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return ParseYAML(data)
}
