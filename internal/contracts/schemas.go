package contracts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Имена контрактов ответов бэкенда.
const (
	ListingPage     = "listing-page"
	FeaturedList    = "featured-list"
	Listing         = "listing"
	FavoritesList   = "favorites-list"
	FavoriteCreated = "favorite-created"
	Districts       = "districts"
)

//go:embed schemas/*.json
var schemasFS embed.FS

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	// Сначала регистрируем все схемы как ресурсы, чтобы работали `$ref` между файлами
	var files []string
	err := fs.WalkDir(schemasFS, "schemas", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		file, err := schemasFS.Open(p)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := compiler.AddResource(p, file); err != nil {
			return fmt.Errorf("add schema resource %s: %w", p, err)
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		log.Fatalf("error walking and adding schema resources: %v", err)
	}

	for _, p := range files {
		schema, err := compiler.Compile(p)
		if err != nil {
			log.Fatalf("could not compile schema %s: %v", p, err)
		}
		compiledSchemas[strings.TrimSuffix(path.Base(p), ".json")] = schema
	}
}

// Validate проверяет тело ответа по схеме контракта.
func Validate(contract string, body []byte) error {
	schema, ok := compiledSchemas[contract]
	if !ok {
		return fmt.Errorf("schema for contract '%s' not found", contract)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("response body is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed for %s: %w", contract, err)
	}
	return nil
}
