package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/recon"
	"github.com/intact-tools/intact/pkg/intact/walker"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		changes  *recon.ChangeSet
		warnings []walker.Warning
		want     int
	}{
		{
			name:    "clean run",
			changes: &recon.ChangeSet{Unchanged: 5, Total: 5},
			want:    exitClean,
		},
		{
			name:     "warnings only",
			changes:  &recon.ChangeSet{Unchanged: 4, Total: 4},
			warnings: []walker.Warning{{Path: "x", Err: "unreadable"}},
			want:     exitFatal,
		},
		{
			name:    "differences without bitrot",
			changes: &recon.ChangeSet{Added: []index.Entry{{Path: "a"}}},
			want:    exitDiff,
		},
		{
			name: "bitrot dominates other differences",
			changes: &recon.ChangeSet{
				Added:  []index.Entry{{Path: "a"}},
				Bitrot: []index.Entry{{Path: "b"}},
			},
			warnings: []walker.Warning{{Path: "x", Err: "unreadable"}},
			want:     exitBitrot,
		},
		{
			name:    "moves alone are differences",
			changes: &recon.ChangeSet{Moved: []recon.Move{{From: "a", To: "b"}}},
			want:    exitDiff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &runResult{changes: tt.changes, warnings: tt.warnings}
			assert.Equal(t, tt.want, exitCode(res))
		})
	}
}

func TestExitWithCode(t *testing.T) {
	assert.NoError(t, exitWithCode(exitClean))

	err := exitWithCode(exitBitrot)
	require.Error(t, err)
	ee, ok := err.(*exitError)
	require.True(t, ok)
	assert.Equal(t, exitBitrot, ee.code)
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveRoot([]string{dir})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	_, err = resolveRoot([]string{filepath.Join(dir, "missing")})
	require.Error(t, err)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = resolveRoot([]string{file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestBuildReport(t *testing.T) {
	res := &runResult{
		changes: &recon.ChangeSet{
			Added:       []index.Entry{{Path: "new.txt"}},
			Removed:     []index.Entry{{Path: "old.txt"}},
			Bitrot:      []index.Entry{{Path: "rot.txt"}},
			Moved:       []recon.Move{{From: "a", To: "b"}},
			Unchanged:   10,
			Total:       13,
			BytesHashed: 256,
		},
		warnings: []walker.Warning{{Path: "w.txt", Err: "boom"}},
		duration: 2 * time.Second,
	}

	r := buildReport("/root", "audit", res, true)

	assert.Equal(t, "/root", r.Root)
	assert.Equal(t, "audit", r.Mode)
	assert.Equal(t, []string{"new.txt"}, r.Added)
	assert.Equal(t, []string{"old.txt"}, r.Removed)
	assert.Equal(t, []string{"rot.txt"}, r.Bitrot)
	require.Len(t, r.Moved, 1)
	assert.Equal(t, "b", r.Moved[0].To)
	assert.Equal(t, 10, r.Unchanged)
	assert.Equal(t, 13, r.Total)
	assert.Equal(t, int64(256), r.BytesHashed)
	assert.True(t, r.Persisted)
	assert.Equal(t, []string{"w.txt: boom"}, r.Warnings)
}

func TestLoadMatcherExcludesIndexFiles(t *testing.T) {
	m, err := loadMatcher(t.TempDir())
	require.NoError(t, err)

	assert.False(t, m.Match(index.HashIndexName))
	assert.False(t, m.Match(index.MetaIndexName))
	assert.True(t, m.Match("normal.txt"))
}
