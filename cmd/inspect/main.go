package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"citrine/internal/common"
	"citrine/internal/journal"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.db|file-journal> [pagesize]\n", os.Args[0])
		os.Exit(1)
	}

	path := os.Args[1]
	pageSize := common.DefaultPageSize
	if len(os.Args) == 3 {
		n, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || n == 0 {
			fmt.Fprintf(os.Stderr, "bad page size %q\n", os.Args[2])
			os.Exit(1)
		}
		pageSize = uint32(n)
	}

	switch {
	case strings.HasSuffix(path, "-journal"):
		inspectJournal(path)
	case strings.ToLower(filepath.Ext(path)) == ".db":
		inspectDatabase(path, pageSize)
	default:
		fmt.Fprintf(os.Stderr, "unknown file type: %s (expected .db or -journal)\n", path)
		os.Exit(1)
	}
}

// inspectDatabase reads the file directly rather than through a pager, so a
// hot journal is reported instead of replayed.
func inspectDatabase(path string, pageSize uint32) {
	fmt.Printf("Inspecting database: %s\n", path)
	fmt.Println()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to stat database: %v\n", err)
		os.Exit(1)
	}
	if info.Size()%int64(pageSize) != 0 {
		fmt.Printf("warning: %d bytes is not a multiple of the %d byte page size\n\n", info.Size(), pageSize)
	}
	if _, err := os.Stat(common.JournalPath(path)); err == nil {
		fmt.Println("warning: hot journal present, the last transaction did not commit")
		fmt.Println()
	}

	pageCount := info.Size() / int64(pageSize)
	fmt.Printf("%-6s %6s  %s\n", "PAGE", "BYTES", "CONTENT")
	fmt.Println()

	img := make([]byte, pageSize)
	empty := 0
	for pgno := int64(1); pgno <= pageCount; pgno++ {
		if _, err := f.ReadAt(img, (pgno-1)*int64(pageSize)); err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(os.Stderr, "error reading page %d: %v\n", pgno, err)
			os.Exit(1)
		}
		text := strings.TrimRight(string(img), "\x00")
		if text == "" {
			empty++
			continue
		}
		fmt.Printf("%-6d %6d  %s\n", pgno, len(text), preview(text))
	}

	fmt.Println()
	fmt.Printf("Total pages: %d (%d empty)\n", pageCount, empty)
}

func inspectJournal(path string) {
	fmt.Printf("Inspecting journal: %s\n", path)
	fmt.Println()

	jrnl, err := journal.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open journal: %v\n", err)
		os.Exit(1)
	}
	defer jrnl.Close()

	fmt.Printf("page size: %d\n", jrnl.PageSize())
	fmt.Printf("original page count: %d\n", jrnl.OrigPageCount())
	fmt.Println()

	iter, err := jrnl.Iterator(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create iterator: %v\n", err)
		os.Exit(1)
	}
	defer iter.Close()

	fmt.Printf("%-8s %-6s  %s\n", "RECORD", "PAGE", "OLD CONTENT")
	fmt.Println()

	count := 0
	for {
		rec, ok, err := iter.Next()
		if errors.Is(err, journal.ErrChecksum) {
			fmt.Printf("damaged record after %d intact, stopping\n", count)
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading record: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			break
		}
		count++
		text := strings.TrimRight(string(rec.Image), "\x00")
		fmt.Printf("%-8d %-6d  %s\n", count, rec.PgNo, preview(text))
	}

	fmt.Println()
	fmt.Printf("Total records: %d\n", count)
}

func preview(text string) string {
	if text == "" {
		return "(empty)"
	}
	if len(text) > 50 {
		text = text[:50] + "..."
	}
	return fmt.Sprintf("%q", text)
}
