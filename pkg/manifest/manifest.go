package manifest

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Formula is a package installed through the package manager, with
// optional install arguments.
type Formula struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// App is an App Store installation, keyed by its numeric store id.
type App struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Manifest is the declarative workstation package list.
type Manifest struct {
	Taps     []string  `json:"taps,omitempty"`
	Formulas []Formula `json:"formulas,omitempty"`
	Casks    []string  `json:"casks,omitempty"`
	AppStore []App     `json:"appstore,omitempty"`
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read manifest %q: %w", path, err)
	}

	m := &Manifest{}
	err = yaml.Unmarshal(data, m)
	if err != nil {
		return nil, fmt.Errorf("can't decode manifest %q: %w", path, err)
	}

	err = m.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %q: %w", path, err)
	}

	return m, nil
}

func (m *Manifest) Validate() error {
	var errs []error

	seen := map[string]struct{}{}
	checkName := func(kind, name string) {
		if len(name) == 0 {
			errs = append(errs, fmt.Errorf("%s with empty name", kind))
			return
		}

		key := kind + "/" + name
		if _, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("duplicate %s %q", kind, name))
			return
		}
		seen[key] = struct{}{}
	}

	for _, t := range m.Taps {
		checkName("tap", t)
	}

	for _, f := range m.Formulas {
		checkName("formula", f.Name)
	}

	for _, c := range m.Casks {
		checkName("cask", c)
	}

	for _, a := range m.AppStore {
		checkName("appstore app", a.Name)
		if a.ID <= 0 {
			errs = append(errs, fmt.Errorf("appstore app %q has invalid id %d", a.Name, a.ID))
		}
	}

	return utilerrors.NewAggregate(errs)
}

// Len returns the total number of installations the manifest declares.
func (m *Manifest) Len() int {
	return len(m.Taps) + len(m.Formulas) + len(m.Casks) + len(m.AppStore)
}
