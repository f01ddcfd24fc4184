// Debug program for the streaming container reader
//
// Usage:
//
//	go run ./cmd/test/epub_reader/main.go <epub-file-path> (<member> ...)
//
// This program:
// - Walks the local file headers and prints each member's data range
// - Shows where the package document was found
// - Decompresses the members given, capped at their declared size
package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/yuanying/epub2txt/internal/archive"
	"github.com/yuanying/epub2txt/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/epub_reader/main.go <epub-file> (<member> ...)")
		os.Exit(1)
	}

	epubPath := os.Args[1]
	names := os.Args[2:]

	a, err := archive.Open(epubPath)
	if err != nil {
		log.Fatalf("Failed to walk container: %v", err)
	}
	defer a.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "offset\tcompressed\tsize\tmethod\tname\t")
	for _, m := range a.Members {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t\n", m.Offset, m.CompressedSize, m.Size, m.Method, m.Name)
	}
	tw.Flush()
	fmt.Printf("\n%d members\n", len(a.Members))

	reader, err := epub.NewReader(a)
	if err != nil {
		log.Fatalf("Failed to locate package document: %v", err)
	}
	fmt.Printf("OPF Path: %s\n", reader.OPFPath())

	for _, name := range names {
		m, ok := a.Member(name)
		if !ok {
			log.Fatalf("No member named %s", name)
		}
		data, err := m.Bytes()
		if err != nil {
			log.Fatalf("Failed to inflate %s: %v", name, err)
		}
		fmt.Printf("\n== %s (%d bytes)\n", name, len(data))
		if text, err := m.Text(); err == nil {
			fmt.Println(text)
		}
	}
}
