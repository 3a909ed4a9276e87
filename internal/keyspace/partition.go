package keyspace

import (
	"log/slog"
	"math"
	"runtime"
)

const (
	// PerUnitMemoryEstimate is the fixed working-set cost of one execution
	// unit: the kernel's block batch, seed buffer and target-set copy.
	PerUnitMemoryEstimate uint64 = 4 << 20

	// DefaultMemoryBudget caps unit spawning when the caller gives none.
	DefaultMemoryBudget uint64 = 512 << 20

	// timeDominanceFactor is how much longer the time axis must be than
	// the register axes combined before splitting it is clearly the right
	// strategy. Below it we still split time, but note it in the log.
	timeDominanceFactor = 10
)

// Partitioner slices a Space into per-unit chunks along the time axis.
// Timer0 and vcount stay whole in every chunk; a hybrid multi-axis split is
// a possible extension but no real search space has needed one.
type Partitioner struct {
	logger        *slog.Logger
	hardwareUnits int
	memoryBudget  uint64
}

// Config tunes a Partitioner. Zero values fall back to runtime defaults.
type Config struct {
	HardwareUnits int
	MemoryBudget  uint64
	Logger        *slog.Logger
}

// NewPartitioner builds a Partitioner from cfg.
func NewPartitioner(cfg Config) *Partitioner {
	if cfg.HardwareUnits <= 0 {
		cfg.HardwareUnits = runtime.NumCPU()
	}

	if cfg.MemoryBudget == 0 {
		cfg.MemoryBudget = DefaultMemoryBudget
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Partitioner{
		logger:        cfg.Logger,
		hardwareUnits: cfg.HardwareUnits,
		memoryBudget:  cfg.MemoryBudget,
	}
}

// EffectiveUnits clamps the requested unit count by the hardware concurrency
// hint and the memory budget.
func (p *Partitioner) EffectiveUnits(requested int) int {
	units := requested
	if units < 1 {
		units = 1
	}

	if units > p.hardwareUnits {
		units = p.hardwareUnits
	}

	if byMem := p.memoryBudget / PerUnitMemoryEstimate; uint64(units) > byMem {
		units = int(byMem)
	}

	if units < 1 {
		units = 1
	}

	return units
}

// Partition splits the space into at most `requested` chunks. The time axis
// is divided into ceiling-length contiguous segments; the last segment stops
// at the space's end, and segments that would start past it are dropped. An
// empty or inverted space yields no chunks.
func (p *Partitioner) Partition(space Space, requested int) []Chunk {
	secs := space.Seconds()
	if secs <= 0 {
		p.logger.Warn("keyspace: empty space", "time_start", space.TimeStart, "time_end", space.TimeEnd)

		return nil
	}

	units := p.EffectiveUnits(requested)

	registerOps := space.Timer0.Count() * space.VCount.Count()
	if uint64(secs) < registerOps*timeDominanceFactor {
		p.logger.Debug("keyspace: time axis does not dominate",
			"seconds", secs,
			"register_ops", registerOps)
	}

	// Ceiling division keeps segments equal; the remainder shortens only
	// the final one.
	segment := (secs + int64(units) - 1) / int64(units)

	chunks := make([]Chunk, 0, units)

	for i := 0; i < units; i++ {
		start := space.TimeStart + int64(i)*segment
		if start > space.TimeEnd {
			break
		}

		end := start + segment - 1
		if end > space.TimeEnd {
			end = space.TimeEnd
		}

		chunks = append(chunks, Chunk{
			UnitID:              i,
			TimeStart:           start,
			TimeEnd:             end,
			Timer0:              space.Timer0,
			VCount:              space.VCount,
			EstimatedOperations: uint64(end-start+1) * registerOps,
		})
	}

	p.logger.Info("keyspace: partitioned",
		"chunks", len(chunks),
		"requested", requested,
		"segment_seconds", segment,
		"total_operations", space.TotalOperations(),
		"balance_score", LoadBalanceScore(chunks))

	return chunks
}

// LoadBalanceScore grades how evenly work is spread across chunks:
// 100 - 100 x the coefficient of variation of estimated operations,
// floored at zero. Diagnostic only.
func LoadBalanceScore(chunks []Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	var sum float64
	for _, c := range chunks {
		sum += float64(c.EstimatedOperations)
	}

	mean := sum / float64(len(chunks))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, c := range chunks {
		d := float64(c.EstimatedOperations) - mean
		variance += d * d
	}
	variance /= float64(len(chunks))

	score := 100 - 100*math.Sqrt(variance)/mean
	if score < 0 {
		return 0
	}

	return score
}
