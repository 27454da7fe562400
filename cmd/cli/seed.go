package main

import (
	"fmt"
	"time"

	"citrine/internal/common"
	"citrine/internal/pager"
)

var seedPairs = [][2]string{
	{"agate", "alder"},
	{"beryl", "birch"},
	{"citrine", "cedar"},
	{"diamond", "dogwood"},
	{"emerald", "elm"},
	{"fluorite", "fir"},
	{"garnet", "ginkgo"},
	{"heliodor", "hawthorn"},
	{"iolite", "ironwood"},
	{"jasper", "juniper"},
	{"kunzite", "katsura"},
	{"larimar", "larch"},
	{"moonstone", "maple"},
	{"nephrite", "nyssa"},
	{"onyx", "oak"},
	{"peridot", "pine"},
	{"quartz", "quillaja"},
	{"ruby", "rowan"},
	{"spinel", "spruce"},
	{"topaz", "tamarack"},
	{"unakite", "upas"},
	{"variscite", "viburnum"},
	{"wulfenite", "willow"},
	{"xenotime", "xylosma"},
	{"yugawaralite", "yew"},
	{"zircon", "zelkova"},
}

// runSeed allocates and fills n pages. Inside an open transaction it seeds
// into that transaction; otherwise it runs one of its own.
func runSeed(p *pager.Pager, n int) {
	start := time.Now()
	wrap := !p.Stats().InTransaction
	if wrap {
		if err := p.Begin(); err != nil {
			fmt.Printf("seed error: %v\n", err)
			return
		}
	}

	count := 0
	for i := 0; i < n; i++ {
		pgno, err := p.Allocate()
		if err != nil {
			fmt.Printf("seed error: %v\n", err)
			break
		}
		pair := seedPairs[int(pgno)%len(seedPairs)]
		record := fmt.Sprintf("%s%d=%s%d", pair[0], pgno, pair[1], pgno)
		img := make([]byte, p.PageSize())
		copy(img, record)
		if err := p.Write(pgno, img); err != nil {
			fmt.Printf("seed error: %v\n", err)
			break
		}
		count++
	}

	if wrap {
		if err := p.Commit(); err != nil {
			fmt.Printf("seed commit error: %v\n", err)
			return
		}
	}

	if count > 0 {
		avgPerPage := time.Since(start) / time.Duration(count)
		common.LogDuration(start, "seeded %d pages - %v/page", count, avgPerPage)
	}
	fmt.Printf("seeded %d pages (now %d total)\n", count, p.PageCount())
}
