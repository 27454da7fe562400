package pager

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"citrine/internal/common"
	"citrine/internal/journal"
)

// stuckJournal fails its first Remove attempt and passes every other call
// through to the wrapped journal.
type stuckJournal struct {
	journal.Journal
	tripped bool
}

func (j *stuckJournal) Remove() error {
	if !j.tripped {
		j.tripped = true
		return errors.New("journal: remove refused")
	}
	return j.Journal.Remove()
}

// A commit that flushes pages into the file and then dies before the
// journal is deleted has not committed. Rolling back afterwards must
// replay the journal over the flushed images.
func TestFailedCommitRollsBackFlushedPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	p, err := Open(path, WithPageSize(64))
	require.NoError(t, err)
	defer p.Close()

	before := bytes.Repeat([]byte{0xA1}, 64)
	require.NoError(t, p.Begin())
	pgno, err := p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.Write(pgno, before))
	require.NoError(t, p.Commit())

	require.NoError(t, p.Begin())
	require.NoError(t, p.Write(pgno, bytes.Repeat([]byte{0xEE}, 64)))
	p.jrnl = &stuckJournal{Journal: p.jrnl}
	require.Error(t, p.Commit())
	require.True(t, p.inTxn, "a failed commit must leave the transaction open")
	_, statErr := os.Stat(common.JournalPath(path))
	require.NoError(t, statErr, "a failed commit must leave the journal in place")

	require.NoError(t, p.Rollback())
	require.NoError(t, p.Close())

	p, err = Open(path, WithPageSize(64))
	require.NoError(t, err)
	defer p.Close()
	img, err := p.Read(pgno)
	require.NoError(t, err)
	require.Equal(t, before, img)
}
