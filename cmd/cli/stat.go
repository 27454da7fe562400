package main

import (
	"fmt"
	"strings"

	"citrine/internal/common"
	"citrine/internal/logest"
	"citrine/internal/pager"
)

func printStats(p *pager.Pager) {
	s := p.Stats()
	mag := logest.FromUint64(uint64(s.PageCount))

	fmt.Printf("%-14s %s\n", "path:", s.Path)
	fmt.Printf("%-14s %d\n", "page size:", s.PageSize)
	fmt.Printf("%-14s %d (magnitude %d.%d)\n", "pages:", s.PageCount, mag/10, abs(int(mag%10)))
	fmt.Printf("%-14s %d free, %d cached\n", "of which:", s.FreePages, s.CachedPages)
	if s.BudgetLimit > 0 {
		fmt.Printf("%-14s %d of %d bytes\n", "memory:", s.BudgetUsed, s.BudgetLimit)
	}
	if s.InTransaction {
		fmt.Printf("%-14s %d dirty pages, %d journal records, %d savepoints\n",
			"transaction:", s.DirtyPages, s.JournalRecords, s.Savepoints)
	} else {
		fmt.Printf("%-14s none\n", "transaction:")
	}
}

func printPages(p *pager.Pager) {
	count := p.PageCount()
	if count == 0 {
		fmt.Println("empty database")
		return
	}

	fmt.Printf("%-6s %6s  %s\n", "PAGE", "BYTES", "CONTENT")
	fmt.Println()
	for i := uint32(1); i <= count; i++ {
		img, err := p.Read(common.PageNo(i))
		if err != nil {
			fmt.Printf("%-6d error: %v\n", i, err)
			continue
		}
		text := strings.TrimRight(string(img), "\x00")
		fmt.Printf("%-6d %6d  %s\n", i, len(text), preview(text, 50))
	}
	fmt.Println()
	fmt.Printf("Total pages: %d\n", count)
}

func preview(text string, max int) string {
	if text == "" {
		return "(empty)"
	}
	if len(text) > max {
		text = text[:max] + "..."
	}
	return fmt.Sprintf("%q", text)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
