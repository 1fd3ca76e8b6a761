package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// The entity registry. Package tables fills it from init functions, one
// definition per entity (categories, products, sales); the web server builds
// one route group per entry, so adding an entity is a single Register call.
var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register makes an entity available to the Service and the HTTP routes.
//
// Field names and aliases are lowercased to match the header index. When
// Info.Columns is empty the export header defaults to the field names.
// Register panics on a duplicate key or a definition missing an operation,
// both of which are programming errors caught at startup.
func Register(def TableDefinition) {
	if err := checkDefinition(def); err != nil {
		panic(err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("entity %q registered twice", def.Info.Key))
	}

	specs := make([]FieldSpec, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		spec.Name = strings.ToLower(spec.Name)
		aliases := make([]string, len(spec.Aliases))
		for j, a := range spec.Aliases {
			aliases[j] = strings.ToLower(a)
		}
		spec.Aliases = aliases
		specs[i] = spec
	}
	def.FieldSpecs = specs

	if len(def.Info.Columns) == 0 {
		def.Info.Columns = make([]string, len(specs))
		for i, spec := range specs {
			def.Info.Columns[i] = spec.Name
		}
	}

	registry[def.Info.Key] = def
}

func checkDefinition(def TableDefinition) error {
	if def.Info.Key == "" {
		return fmt.Errorf("entity definition has no key")
	}
	var missing []string
	if len(def.FieldSpecs) == 0 {
		missing = append(missing, "FieldSpecs")
	}
	if def.BuildRecord == nil {
		missing = append(missing, "BuildRecord")
	}
	if def.Insert == nil {
		missing = append(missing, "Insert")
	}
	if def.Stream == nil {
		missing = append(missing, "Stream")
	}
	if def.List == nil {
		missing = append(missing, "List")
	}
	if def.Create == nil {
		missing = append(missing, "Create")
	}
	if len(missing) > 0 {
		return fmt.Errorf("entity %q is missing %s", def.Info.Key, strings.Join(missing, ", "))
	}
	return nil
}

// Get looks up an entity by its URL key.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns every entity ordered by key, which is also the order of the
// routes and of the landing page.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	slices.SortFunc(result, func(a, b TableDefinition) int {
		return cmp.Compare(a.Info.Key, b.Info.Key)
	})
	return result
}

// TableCount is logged at startup.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
