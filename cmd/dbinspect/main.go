// Package main provides a quick inspection tool for the document database.
//
// Usage:
//
//	DATA_PATH=~/Quill/data go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/quillapp/quill-server/internal/store"
	"github.com/quillapp/quill-server/internal/store/sqlite"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dataPath = filepath.Join(home, "Quill", "data")
	}

	dbPath := filepath.Join(dataPath, "quill.db")
	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Path: %s\n\n", dbPath)

	docCount, err := s.CountDocuments(ctx)
	if err != nil {
		log.Fatalf("Failed to count documents: %v", err)
	}

	// Walk all active documents to collect version statistics.
	totalVersions := 0
	maxVersions := 0
	var maxVersionsTitle string
	shown := 0

	params := store.PaginationParams{Limit: 500}
	for {
		page, err := s.ListDocuments(ctx, params)
		if err != nil {
			log.Fatalf("Failed to list documents: %v", err)
		}

		for _, doc := range page.Items {
			versions, err := s.CountVersions(ctx, doc.ID)
			if err != nil {
				log.Printf("Error counting versions for %s: %v", doc.ID, err)
				continue
			}
			newest, err := s.MaxVersionNumber(ctx, doc.ID)
			if err != nil {
				log.Printf("Error reading newest version for %s: %v", doc.ID, err)
				continue
			}
			totalVersions += versions
			if versions > maxVersions {
				maxVersions = versions
				maxVersionsTitle = doc.Title
			}
			// The newest snapshot should track the document's counter;
			// a mismatch means a snapshot write was lost.
			if newest != doc.CurrentVersion {
				fmt.Printf("WARNING: %s counter is %d but newest snapshot is %d\n",
					doc.ID, doc.CurrentVersion, newest)
			}

			if shown < 5 {
				fmt.Printf("Document: %s\n", doc.Title)
				fmt.Printf("  ID: %s\n", doc.ID)
				fmt.Printf("  Current version: %d\n", doc.CurrentVersion)
				fmt.Printf("  Stored versions: %d (newest: %d)\n", versions, newest)
				fmt.Printf("  Updated: %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
				fmt.Println()
				shown++
			}
		}

		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		log.Fatalf("Failed to list tags: %v", err)
	}

	if len(tags) > 0 {
		fmt.Println("=== Tags ===")
		for _, tag := range tags {
			count, err := s.CountDocumentsForTag(ctx, tag.ID)
			if err != nil {
				log.Printf("Error counting documents for tag %s: %v", tag.ID, err)
				continue
			}
			nesting := ""
			if tag.ParentID != "" {
				nesting = fmt.Sprintf(" (parent: %s)", tag.ParentID)
			}
			fmt.Printf("  %s: %d document(s)%s\n", tag.Name, count, nesting)
		}
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Active documents: %d\n", docCount)
	fmt.Printf("Tags: %d\n", len(tags))
	fmt.Printf("Stored versions: %d\n", totalVersions)
	if docCount > 0 {
		fmt.Printf("Average versions per document: %.1f\n", float64(totalVersions)/float64(docCount))
		fmt.Printf("Most versioned: %s (%d)\n", maxVersionsTitle, maxVersions)
	}
}
