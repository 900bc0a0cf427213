package main

import (
	"context"
	"testing"

	"nordflytt_backend/internal/leads/service"
	"nordflytt_backend/platform/logger"
)

type countingProcessor struct {
	chunks [][]string
}

func (c *countingProcessor) ProcessBatch(_ context.Context, ids []string) service.BatchResult {
	c.chunks = append(c.chunks, ids)
	return service.BatchResult{Total: len(ids), Successful: len(ids) - 1, Failed: 1}
}

func TestReprocess_ChunksAndSums(t *testing.T) {
	ids := make([]string, 120)
	for i := range ids {
		ids[i] = "L"
	}
	p := &countingProcessor{}

	total := reprocess(context.Background(), p, ids, logger.Nop(), 0)

	if len(p.chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(p.chunks))
	}
	if len(p.chunks[0]) != chunkSize || len(p.chunks[2]) != 20 {
		t.Fatalf("unexpected chunk sizes %d, %d", len(p.chunks[0]), len(p.chunks[2]))
	}
	if total.Total != 120 || total.Failed != 3 || total.Successful != 117 {
		t.Fatalf("unexpected totals %+v", total)
	}
}
