// Package embedded provides the built-in step catalog.
package embedded

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
)

//go:embed steps.yaml
var stepsYAML []byte

var (
	loadOnce sync.Once
	loaded   *catalog.Catalog
	loadErr  error
)

// LoadCatalog parses the embedded catalog. The result is shared; catalogs are immutable.
func LoadCatalog() (*catalog.Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = catalog.Parse(stepsYAML, catalog.FormatYAML)
		if loadErr != nil {
			loadErr = fmt.Errorf("failed to parse embedded catalog: %w", loadErr)
		}
	})
	return loaded, loadErr
}

// MustLoadCatalog is LoadCatalog for callers that cannot proceed without it.
func MustLoadCatalog() *catalog.Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}
