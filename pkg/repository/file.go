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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/skillflow/skillflow/pkg/errors"
	"github.com/skillflow/skillflow/pkg/skill"
	"github.com/skillflow/skillflow/pkg/skill/parser"
)

// FileRepository loads skills from Markdown documents under a root
// directory. Documents that fail to parse are logged and skipped, so one
// broken file does not hide the rest of the catalogue.
type FileRepository struct {
	root   string
	logger *slog.Logger

	mu     sync.RWMutex
	skills map[string]*skill.Skill
	paths  map[string]string // skill id -> source path
}

// NewFileRepository loads every **/*.md under root.
func NewFileRepository(root string, logger *slog.Logger) (*FileRepository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &FileRepository{
		root:   absRoot,
		logger: logger.With(slog.String("component", "skill-repository"), slog.String("root", absRoot)),
		skills: map[string]*skill.Skill{},
		paths:  map[string]string{},
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rescans the root directory.
func (r *FileRepository) Reload() error {
	matches, err := doublestar.Glob(os.DirFS(r.root), "**/*.md")
	if err != nil {
		return fmt.Errorf("scanning %s: %w", r.root, err)
	}
	sort.Strings(matches)

	skills := map[string]*skill.Skill{}
	paths := map[string]string{}
	for _, rel := range matches {
		path := filepath.Join(r.root, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("cannot read skill file", "path", rel, "error", err)
			continue
		}
		sk, err := parser.Parse(string(data))
		if err != nil {
			r.logger.Warn("skipping unparseable skill file", "path", rel, "error", err)
			continue
		}
		if prev, dup := paths[sk.ID]; dup {
			r.logger.Warn("duplicate skill id, keeping first", "id", sk.ID, "kept", prev, "ignored", rel)
			continue
		}
		r.resolveReferences(sk, filepath.Dir(path))
		skills[sk.ID] = sk
		paths[sk.ID] = rel
	}

	r.mu.Lock()
	r.skills = skills
	r.paths = paths
	r.mu.Unlock()

	r.logger.Debug("skill catalogue loaded", "count", len(skills))
	return nil
}

// resolveReferences loads reference file contents relative to the skill
// document. Missing reference files leave Content empty.
func (r *FileRepository) resolveReferences(sk *skill.Skill, baseDir string) {
	for name, ref := range sk.References {
		path := ref.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Debug("reference file not readable", "skill", sk.ID, "reference", ref.Path)
			continue
		}
		ref.Content = string(data)
		sk.References[name] = ref
	}
}

// Get returns the skill with the given id.
func (r *FileRepository) Get(id string) (*skill.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sk, ok := r.skills[id]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "skill", ID: id}
	}
	return sk, nil
}

// List returns all skills, sorted by id.
func (r *FileRepository) List() []*skill.Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*skill.Skill, 0, len(r.skills))
	for _, sk := range r.skills {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SourcePath returns the path a skill was loaded from, relative to the
// repository root.
func (r *FileRepository) SourcePath(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.paths[id]
	return p, ok
}

// Watch reloads the catalogue whenever a Markdown file under the root
// changes. It blocks until the context is cancelled. fsnotify does not
// recurse, so every subdirectory is registered individually and newly
// created directories are added as they appear.
func (r *FileRepository) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	addDirs := func() error {
		return filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
	}
	if err := addDirs(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", r.root, err)
	}

	r.logger.Info("watching skill directory")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if filepath.Ext(event.Name) != ".md" {
				continue
			}
			r.logger.Debug("skill file changed, reloading", "path", event.Name, "op", event.Op.String())
			if err := r.Reload(); err != nil {
				r.logger.Warn("reload failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)
		}
	}
}
