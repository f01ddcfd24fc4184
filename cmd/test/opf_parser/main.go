// Debug program for the package and navigation document parsers
//
// Usage:
//   go run ./cmd/test/opf_parser/main.go <epub-file-path>
//
// This program will:
// - Read the EPUB into a Book
// - Display metadata and the derived meta record
// - Show spine order
// - Show the navigation map and the chapter boundaries derived from it

package main

import (
	"fmt"
	"os"

	"github.com/yuanying/epub2txt/internal/books"
	"github.com/yuanying/epub2txt/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file-path>\n", os.Args[0])
		os.Exit(1)
	}

	epubPath := os.Args[1]

	fmt.Println("=== EPUB OPF Parser ===")
	fmt.Printf("File: %s\n\n", epubPath)

	book, err := epub.Load(epubPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading EPUB: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OPF Path: %s\n", book.OPFPath)
	fmt.Printf("NCX Path: %s\n\n", book.NCXPath)

	md := book.Metadata
	fmt.Println("--- Metadata ---")
	fmt.Printf("Title:       %s\n", md.Title)
	fmt.Printf("Language:    %s\n", md.Language)
	fmt.Printf("Identifier:  %s\n", md.Identifier)
	if md.ASIN != "" {
		fmt.Printf("ASIN:        %s\n", md.ASIN)
	}
	if len(md.Creators) > 0 {
		fmt.Println("Creators:")
		for i, creator := range md.Creators {
			role := creator.Role
			if role == "" {
				role = "unknown"
			}
			fmt.Printf("  %d. %s (role: %s)\n", i+1, creator.Name, role)
		}
	}
	if md.Publisher != "" {
		fmt.Printf("Publisher:   %s\n", md.Publisher)
	}
	if md.Date != "" {
		fmt.Printf("Date:        %s\n", md.Date)
	}

	meta := books.NewMeta(md)
	fmt.Printf("\nBook name:   %s\n", meta.Title)
	fmt.Printf("Label:       %s\n", meta.Label)
	fmt.Printf("Volumes:     %d\n", books.CountVolumes(md.Title))

	fmt.Printf("\n--- Manifest ---\n")
	fmt.Printf("Total items: %d\n", len(book.Manifest))
	mediaTypes := make(map[string]int)
	for _, item := range book.Manifest {
		mediaTypes[item.MediaType]++
	}
	for mediaType, count := range mediaTypes {
		fmt.Printf("  %s: %d\n", mediaType, count)
	}

	fmt.Printf("\n--- Spine ---\n")
	for i, doc := range book.Spine {
		fmt.Printf("  %d. %s (%d bytes)\n", i, doc.Href, len(doc.Text))
	}

	fmt.Printf("\n--- Navigation ---\n")
	for _, p := range book.TOC {
		target := p.ContentPath
		if p.Fragment != "" {
			target += "#" + p.Fragment
		}
		fmt.Printf("  %s -> %s\n", p.Label, target)
	}

	bounds, err := book.Boundaries([]string{"表紙"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError computing chapter boundaries: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n--- Chapters ---\n")
	for _, b := range bounds {
		fmt.Printf("  [%d, %d) %s\n", b.Start, b.End, b.Title)
	}
}
