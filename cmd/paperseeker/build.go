// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/pdiddy/paperseeker/internal/archive"
	"github.com/pdiddy/paperseeker/internal/llm"
	"github.com/pdiddy/paperseeker/internal/pipeline"
	"github.com/pdiddy/paperseeker/pkg/types"
)

// buildPipeline wires the production pipeline for c. The returned close
// function releases the archive, if one was opened.
func buildPipeline(c *types.Config, out io.Writer) (*pipeline.Pipeline, func(), error) {
	completer, live, err := llm.New(c.LLM)
	if err != nil {
		return nil, nil, err
	}
	if live {
		logger.Info("language model enabled", "provider", c.LLM.Provider, "model", completer.Model())
	} else {
		logger.Info("no LLM API key, using keyword filter and abstract excerpts")
	}

	p := pipeline.New(c, completer, out)

	closeFn := func() {}
	if c.Archive.Path != "" {
		store, err := archive.Open(c.Archive.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening archive: %w", err)
		}
		p.Archive = store
		closeFn = func() { store.Close() }
	}
	return p, closeFn, nil
}
