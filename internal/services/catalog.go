package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"aiindex-backend/internal/models"
)

//go:embed data/free_models.yaml
var freeModelsYAML []byte

// DefaultCompareModels are used by /compare when the request names none.
var DefaultCompareModels = []string{
	"deepseek/deepseek-r1:free",
	"z-ai/glm-4.5-air:free",
	"qwen/qwen-2.5-7b:free",
}

// FreeModelCatalog is the fixed list of free-tier model descriptors.
type FreeModelCatalog struct {
	models []models.FreeModel
}

func NewFreeModelCatalog() (*FreeModelCatalog, error) {
	return parseCatalog(freeModelsYAML)
}

func parseCatalog(data []byte) (*FreeModelCatalog, error) {
	var list []models.FreeModel
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse free model catalog: %w", err)
	}
	for i, m := range list {
		if m.ID == "" {
			return nil, fmt.Errorf("free model catalog entry %d has no id", i)
		}
	}
	return &FreeModelCatalog{models: list}, nil
}

// Models returns a copy so callers cannot mutate the catalog.
func (c *FreeModelCatalog) Models() []models.FreeModel {
	out := make([]models.FreeModel, len(c.models))
	copy(out, c.models)
	return out
}
