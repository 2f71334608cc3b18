package analysis

import (
	"fmt"

	"github.com/perfgrid/utilmap/internal/config"
	"github.com/perfgrid/utilmap/internal/store"
)

// The closed set of analysis kinds. Adding a kind means adding a case to New
// and an entry here; there is no runtime plugin discovery.
const (
	KindGpuTimeUtil     = "gpu-time-util"
	KindCommGpuTimeUtil = "comm-gpu-time-util"
	KindCommGpuOverlap  = "comm-gpu-overlap"
	KindGpuMetricUtil   = "gpu-metric-util"
	KindLowGpuUtil      = "low-gpu-util"
)

// Kinds lists every available analysis kind.
func Kinds() []string {
	return []string{
		KindGpuTimeUtil,
		KindCommGpuTimeUtil,
		KindCommGpuOverlap,
		KindGpuMetricUtil,
		KindLowGpuUtil,
	}
}

// New builds the analysis with the given kind name.
func New(kind string, open store.Opener, cfg *config.Config) (Analysis, error) {
	b := base{open: open, cfg: cfg}

	switch kind {
	case KindGpuTimeUtil:
		return &gpuTimeUtil{base: b}, nil
	case KindCommGpuTimeUtil:
		return &commGpuTimeUtil{base: b}, nil
	case KindCommGpuOverlap:
		return &commGpuOverlap{base: b}, nil
	case KindGpuMetricUtil:
		return &gpuMetricUtil{base: b}, nil
	case KindLowGpuUtil:
		return &lowGpuUtil{base: b}, nil
	default:
		return nil, fmt.Errorf("unsupported or unknown analysis %q", kind)
	}
}
