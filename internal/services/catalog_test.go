package services

import (
	"testing"
)

func TestFreeModelCatalog_Fixed(t *testing.T) {
	catalog, err := NewFreeModelCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	list := catalog.Models()
	if len(list) != 5 {
		t.Fatalf("expected 5 free models, got %d", len(list))
	}
	if list[0].ID != "deepseek/deepseek-r1:free" || list[0].ContextWindow != 32768 {
		t.Fatalf("unexpected first entry: %+v", list[0])
	}
	if list[4].ID != "google/gemma-7b:free" || list[4].ContextWindow != 8192 {
		t.Fatalf("unexpected last entry: %+v", list[4])
	}
}

func TestFreeModelCatalog_ModelsReturnsCopy(t *testing.T) {
	catalog, err := NewFreeModelCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	list := catalog.Models()
	list[0].Name = "mutated"

	if catalog.Models()[0].Name == "mutated" {
		t.Fatalf("catalog should not be mutable through Models()")
	}
}

func TestDefaultCompareModelsAreInCatalog(t *testing.T) {
	catalog, err := NewFreeModelCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	ids := make(map[string]bool)
	for _, m := range catalog.Models() {
		ids[m.ID] = true
	}
	for _, id := range DefaultCompareModels {
		if !ids[id] {
			t.Errorf("default compare model %s missing from catalog", id)
		}
	}
}

func TestParseCatalog_RejectsEntryWithoutID(t *testing.T) {
	if _, err := parseCatalog([]byte("- name: nameless\n")); err == nil {
		t.Fatalf("expected error for entry without id")
	}
}
