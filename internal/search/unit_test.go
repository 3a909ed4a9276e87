package search

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niart120/seedgrind/internal/kernel"
	"github.com/niart120/seedgrind/internal/keyspace"
	"github.com/niart120/seedgrind/internal/romdata"
)

// captureKernel records every block it is handed, in order.
type captureKernel struct {
	blocks []kernel.Block
}

func (c *captureKernel) Name() string { return "capture" }

func (c *captureKernel) SeedBatch(blocks []kernel.Block, out []uint32) {
	c.blocks = append(c.blocks, blocks...)

	for i := range out {
		out[i] = 0
	}
}

// word5 reconstructs the (vcount, timer0) packing for comparison against
// captured blocks.
func word5(timer0, vcount uint32) uint32 {
	v := vcount<<16 | timer0

	return v<<24 | (v&0xFF00)<<8 | (v>>8)&0xFF00 | v>>24
}

func TestUnitEnumerationOrderAndOverride(t *testing.T) {
	t.Parallel()

	params := romdata.Parameters{
		DefaultVCount: 0x60,
		Overrides: []romdata.VCountOverride{
			{Timer0Min: 0xC7A, Timer0Max: 0xC7B, VCount: 0x82},
		},
	}

	res := resolved{
		template: kernel.NewTemplate(kernel.TemplateConfig{
			Nazo:     [5]uint32{1, 2, 3, 4, 5},
			MAC:      [6]byte{0, 1, 2, 3, 4, 5},
			Frame:    8,
			KeyInput: 0x2FFF,
		}),
		params:     params,
		twelveHour: true,
	}

	start := kernel.SecondsSince2000(time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC))

	ck := &captureKernel{}
	msgs := make(chan unitMessage, 64)

	u := &unit{
		id: 0,
		chunk: keyspace.Chunk{
			TimeStart:           start,
			TimeEnd:             start + 1,
			Timer0:              keyspace.Range{Min: 0xC79, Max: 0xC7B},
			VCount:              keyspace.Range{Min: 0x60, Max: 0x61},
			EstimatedOperations: 12,
		},
		res:         res,
		targets:     NewTargetSet([]uint32{0xDEADBEEF}),
		kern:        ck,
		batchSize:   16,
		reportEvery: time.Hour,
		ctrl:        make(chan unitCommand),
		out:         msgs,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	u.run(context.Background())

	require.Len(t, ck.blocks, 8)

	// timer0 outermost, vcount middle, time innermost. 0xC79 walks the full
	// vcount range; 0xC7A and 0xC7B are pinned by the override row, so each
	// enumerates a single vcount pass instead of duplicating blocks.
	want := []uint32{
		word5(0xC79, 0x60), word5(0xC79, 0x60),
		word5(0xC79, 0x61), word5(0xC79, 0x61),
		word5(0xC7A, 0x82), word5(0xC7A, 0x82),
		word5(0xC7B, 0x82), word5(0xC7B, 0x82),
	}

	for i, b := range ck.blocks {
		assert.Equal(t, want[i], b[5], "block %d", i)
	}

	// The message stream ends with a clean completion.
	var last unitMessage
	for len(msgs) > 0 {
		last = <-msgs
	}

	done, ok := last.(unitDone)
	require.True(t, ok)
	assert.False(t, done.stopped)
}

func TestUnitHonorsStopAtBatchBoundary(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ck := &captureKernel{}
	msgs := make(chan unitMessage, 64)

	start := kernel.SecondsSince2000(time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC))

	u := &unit{
		id: 0,
		chunk: keyspace.Chunk{
			TimeStart:           start,
			TimeEnd:             start + 999,
			Timer0:              keyspace.Range{Min: 0xC79, Max: 0xC79},
			VCount:              keyspace.Range{Min: 0x60, Max: 0x60},
			EstimatedOperations: 1000,
		},
		res:         resolved{template: kernel.NewTemplate(kernel.TemplateConfig{}), twelveHour: true},
		targets:     NewTargetSet([]uint32{0xDEADBEEF}),
		kern:        ck,
		batchSize:   100,
		reportEvery: time.Hour,
		ctrl:        make(chan unitCommand),
		out:         msgs,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	u.run(ctx)

	// The context was already cancelled: exactly one batch runs before the
	// boundary check fires.
	assert.Len(t, ck.blocks, 100)

	var last unitMessage
	for len(msgs) > 0 {
		last = <-msgs
	}

	done, ok := last.(unitDone)
	require.True(t, ok)
	assert.True(t, done.stopped)
}
