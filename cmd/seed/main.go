// Package main provides a tool to seed the database with sample documents.
//
// This creates a small tag hierarchy and a handful of documents with edit
// history, useful for exercising versioning, tag filtering, and search
// against realistic data.
//
// Usage:
//
//	go run ./cmd/seed --data-path ~/Quill/data
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/quillapp/quill-server/internal/di"
	"github.com/quillapp/quill-server/internal/logger"
	"github.com/quillapp/quill-server/internal/service"
)

// seedDocuments are the sample documents created by the tool. Revisions are
// applied in order after creation so each document carries version history.
var seedDocuments = []struct {
	title     string
	content   string
	tags      []string
	revisions []string
}{
	{
		title:   "Getting Started",
		content: "Welcome to your knowledge base. Create documents, tag them, and search across everything.",
		tags:    []string{"guides"},
	},
	{
		title:   "Go Concurrency Notes",
		content: "Channels are typed conduits. Goroutines are cheap but not free. Prefer sync.WaitGroup for fan-out.",
		tags:    []string{"programming", "go"},
		revisions: []string{
			"Channels are typed conduits. Goroutines are cheap but not free.\n\nPrefer errgroup over raw WaitGroup when calls can fail.",
			"Channels are typed conduits. Goroutines are cheap but not free.\n\nPrefer errgroup over raw WaitGroup when calls can fail.\n\nContext cancellation propagates through the call tree.",
		},
	},
	{
		title:   "SQLite Tuning",
		content: "WAL mode gives concurrent readers. busy_timeout avoids SQLITE_BUSY under write contention.",
		tags:    []string{"programming", "databases"},
		revisions: []string{
			"WAL mode gives concurrent readers. busy_timeout avoids SQLITE_BUSY under write contention.\n\nsynchronous=NORMAL is safe with WAL.",
		},
	},
	{
		title:   "Reading List",
		content: "- The Go Programming Language\n- Designing Data-Intensive Applications\n- A Philosophy of Software Design",
		tags:    []string{"personal"},
	},
	{
		title:   "Weekly Review Template",
		content: "What went well?\nWhat needs attention?\nWhat gets dropped?",
		tags:    []string{"personal", "templates"},
	},
}

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	docs := do.MustInvoke[*service.DocumentService](injector)
	tags := do.MustInvoke[*service.TagService](injector)

	ctx := context.Background()

	// Build a small hierarchy up front so seeded tags nest properly.
	programming, err := tags.ResolveOrCreate(ctx, "programming", "")
	if err != nil {
		log.Fatal("Failed to create root tag", "error", err)
	}
	for _, child := range []string{"go", "databases"} {
		if _, err := tags.ResolveOrCreate(ctx, child, programming.ID); err != nil {
			log.Fatal("Failed to create child tag", "name", child, "error", err)
		}
	}

	created := 0
	for _, seed := range seedDocuments {
		doc, err := docs.Create(ctx, service.CreateDocumentRequest{
			Title:   seed.title,
			Content: seed.content,
			Tags:    seed.tags,
		})
		if err != nil {
			log.Error("Failed to create document", "title", seed.title, "error", err)
			continue
		}
		created++

		for i, revision := range seed.revisions {
			summary := fmt.Sprintf("Revision %d", i+1)
			doc, err = docs.Update(ctx, doc.ID, service.UpdateDocumentRequest{
				Content:       &revision,
				ChangeSummary: summary,
			})
			if err != nil {
				log.Error("Failed to revise document", "title", seed.title, "error", err)
				break
			}
		}

		fmt.Printf("Created: %s (%s, %d version(s))\n", doc.Title, doc.ID, doc.CurrentVersion)
	}

	fmt.Printf("\nSeeding complete: %d document(s)\n", created)

	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}
}
