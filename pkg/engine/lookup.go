package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/patch"
)

// minPrefix is the shortest sha prefix accepted for lookup.
const minPrefix = 4

// Lookup resolves a full sha, a short id, or a unique sha prefix to a commit
// index.
func (s *Session) Lookup(ref string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookup(ref)
}

func (s *Session) lookup(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("%w: empty reference", ErrUnknownCommit)
	}

	if idx, ok := s.bySHA[ref]; ok {
		return idx, nil
	}

	if idx, ok := s.byShort[ref]; ok {
		return idx, nil
	}

	if len(ref) < minPrefix {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommit, ref)
	}

	found := -1

	for i := range s.ds.Commits {
		if !strings.HasPrefix(s.ds.Commits[i].SHA, ref) {
			continue
		}

		if found >= 0 {
			return 0, fmt.Errorf("%w: %q", ErrAmbiguousCommit, ref)
		}

		found = i
	}

	if found < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommit, ref)
	}

	return found, nil
}

// Commit returns the commit a reference resolves to.
func (s *Session) Commit(ref string) (*dataset.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}

	return &s.ds.Commits[idx], nil
}

// ParsedPatch returns the structural parse of a commit's patch, memoized by
// sha.
func (s *Session) ParsedPatch(ctx context.Context, ref string) ([]patch.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}

	c := &s.ds.Commits[idx]

	if files, ok := s.patches.Get(c.SHA); ok {
		s.recorder.CacheAccess(ctx, CachePatches, true)

		return files, nil
	}

	s.recorder.CacheAccess(ctx, CachePatches, false)

	files := patch.Parse(c.Patch)
	s.patches.Set(c.SHA, files)

	return files, nil
}

// Files lists the paths tracked at a commit in stored order.
func (s *Session) Files(ref string) ([]string, error) {
	c, err := s.Commit(ref)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(c.Files))
	for i, f := range c.Files {
		paths[i] = f.Path
	}

	return paths, nil
}

// Document renders the text a commit holds for scope: one file's content, or
// every file under a "==> path <==" header when scope is empty. Results are
// memoized per (sha, scope).
func (s *Session) Document(ctx context.Context, ref, scope string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookup(ref)
	if err != nil {
		return "", err
	}

	return s.document(ctx, &s.ds.Commits[idx], scope)
}

func (s *Session) document(ctx context.Context, c *dataset.Commit, scope string) (string, error) {
	key := docKey{sha: c.SHA, scope: scope}

	if text, ok := s.docs.Get(key); ok {
		s.recorder.CacheAccess(ctx, CacheDocuments, true)

		return text, nil
	}

	s.recorder.CacheAccess(ctx, CacheDocuments, false)

	text, err := renderDocument(c, scope)
	if err != nil {
		return "", err
	}

	s.docs.Set(key, text)

	return text, nil
}

func renderDocument(c *dataset.Commit, scope string) (string, error) {
	if scope != "" {
		f, ok := c.File(scope)
		if !ok {
			return "", fmt.Errorf("%w: %s at %s", ErrUnknownFile, scope, c.Short)
		}

		return f.Content, nil
	}

	var sb strings.Builder

	for i, f := range c.Files {
		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString("==> ")
		sb.WriteString(f.Path)
		sb.WriteString(" <==\n")
		sb.WriteString(f.Content)

		if f.Content != "" && !strings.HasSuffix(f.Content, "\n") {
			sb.WriteByte('\n')
		}
	}

	return sb.String(), nil
}

// SplitLines splits text into lines without their terminators. A trailing
// newline does not produce an empty final line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	return lines
}

// changedFiles lists paths whose content differs between two commits,
// including files present on one side only, sorted.
func changedFiles(from, to *dataset.Commit) []string {
	before := make(map[string]string, len(from.Files))
	for _, f := range from.Files {
		before[f.Path] = f.Content
	}

	var changed []string

	for _, f := range to.Files {
		old, ok := before[f.Path]
		if !ok || old != f.Content {
			changed = append(changed, f.Path)
		}

		delete(before, f.Path)
	}

	for path := range before {
		changed = append(changed, path)
	}

	slices.Sort(changed)

	return changed
}
