// Copyright 2026 Skillflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
)

const greeterDoc = "# skill: greeter\n## steps\n### step: say\n```template\nhi {{name}}\n```\n"
const reviewerDoc = "# skill: reviewer\n\n<!-- reference: notes.md -->\n\n## steps\n### step: review\n```template\nlooking\n```\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMemoryRepository(t *testing.T) {
	r := NewMemoryRepository()
	r.Put(&skill.Skill{ID: "b"})
	r.Put(&skill.Skill{ID: "a"})

	sk, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", sk.ID)

	_, err = r.Get("missing")
	var nf *errors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID, "sorted by id")

	r.Remove("a")
	_, err = r.Get("a")
	assert.Error(t, err)
}

func TestFileRepositoryLoads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "greeter.md"), greeterDoc)
	writeFile(t, filepath.Join(dir, "nested", "reviewer.md"), reviewerDoc)
	writeFile(t, filepath.Join(dir, "nested", "notes.md"), "# skill: broken doc that is really a reference\n")
	writeFile(t, filepath.Join(dir, "README.txt"), "not markdown")

	r, err := NewFileRepository(dir, nil)
	require.NoError(t, err)

	sk, err := r.Get("greeter")
	require.NoError(t, err)
	assert.Len(t, sk.Steps, 1)

	reviewer, err := r.Get("reviewer")
	require.NoError(t, err)
	ref, ok := reviewer.References["notes"]
	require.True(t, ok)
	assert.Contains(t, ref.Content, "reference", "reference content resolved relative to the document")

	path, ok := r.SourcePath("reviewer")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("nested", "reviewer.md"), path)
}

func TestFileRepositorySkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.md"), greeterDoc)
	writeFile(t, filepath.Join(dir, "bad.md"), "## steps without a skill heading\n")

	r, err := NewFileRepository(dir, nil)
	require.NoError(t, err, "one broken file does not fail the load")
	assert.Len(t, r.List(), 1)
}

func TestFileRepositoryReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "greeter.md"), greeterDoc)

	r, err := NewFileRepository(dir, nil)
	require.NoError(t, err)
	assert.Len(t, r.List(), 1)

	writeFile(t, filepath.Join(dir, "reviewer.md"), reviewerDoc)
	require.NoError(t, r.Reload())
	assert.Len(t, r.List(), 2)
}

func TestFileRepositoryWatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "greeter.md"), greeterDoc)

	r, err := NewFileRepository(dir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// give the watcher a moment to register, then drop a new skill in
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "reviewer.md"), reviewerDoc)

	require.Eventually(t, func() bool {
		_, err := r.Get("reviewer")
		return err == nil
	}, 3*time.Second, 50*time.Millisecond, "watcher reloads on new files")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
