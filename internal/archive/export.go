// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// history loads the most recent runs together with their papers.
func (s *Store) history(ctx context.Context, limit int) ([]Run, error) {
	runs, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		papers, err := s.Papers(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Papers = papers
	}
	return runs, nil
}

// ExportYAML writes the most recent runs, with papers, to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.history(ctx, limit)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the most recent runs, with papers, to w as JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.history(ctx, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
