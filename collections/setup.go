package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// jsonFieldMaxSize bounds the serialized ledger and detail payloads.
const jsonFieldMaxSize = 2 << 20

// Setup programmatically creates/ensures the wizard_sessions collection exists.
// Each record holds one wizard run: the chosen project type, the detail
// attribute bag, the category selection, items pending from extraction and
// the serialized ledger.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, "wizard_sessions", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "token", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference_number", Required: false})
		c.Fields.Add(&core.TextField{Name: "project_type", Required: false})
		c.Fields.Add(&core.JSONField{Name: "details", MaxSize: jsonFieldMaxSize})
		c.Fields.Add(&core.JSONField{Name: "category", MaxSize: jsonFieldMaxSize})
		c.Fields.Add(&core.JSONField{Name: "extracted_items", MaxSize: jsonFieldMaxSize})
		c.Fields.Add(&core.JSONField{Name: "ledger", MaxSize: jsonFieldMaxSize})
		c.Fields.Add(&core.DateField{Name: "generated_at"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_wizard_sessions_token", true, "token", "")
	})
	ensureIndex(app, "wizard_sessions", "idx_wizard_sessions_reference", "reference_number", "reference_number != ''")
}

// ensureIndex adds a unique index to an existing collection when it is
// missing. Collections created before the index was introduced get it on
// the next startup. A failure (e.g. rows that already collide) is logged
// and leaves the collection unchanged.
func ensureIndex(app *pocketbase.PocketBase, collection, name, columns, where string) {
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		log.Printf("Collection %q not found, cannot add index %q: %v", collection, name, err)
		return
	}
	if col.GetIndex(name) != "" {
		return
	}

	col.AddIndex(name, true, columns, where)
	if err := app.Save(col); err != nil {
		log.Printf("Failed to add index %q to %q: %v", name, collection, err)
		return
	}
	fmt.Printf("Added index %q to collection %q\n", name, collection)
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
