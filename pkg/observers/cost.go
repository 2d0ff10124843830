package observers

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/strum/pkg/metrics"
)

// CostSummary is the per-turn usage artifact written on shutdown.
type CostSummary struct {
	TurnID        string `json:"turn_id"`
	Status        string `json:"status,omitempty"`
	LLMTokenCount int    `json:"llm_tokens"`
	ToolCalls     int    `json:"tool_calls"`
	RecordedAtUTC string `json:"recorded_at_utc"`
}

// CostObserver accumulates model token usage and tool call counts per turn
// and writes one summary file per turn on Close. A blank dir disables it.
type CostObserver struct {
	dir   string
	mu    sync.Mutex
	stats map[string]*CostSummary
}

func NewCostObserver(dir string) *CostObserver {
	return &CostObserver{dir: dir, stats: make(map[string]*CostSummary)}
}

func (o *CostObserver) RecordEvent(ev metrics.MetricsEvent) {
	if strings.TrimSpace(o.dir) == "" {
		return
	}
	turnID := ""
	if ev.Tags != nil {
		turnID = ev.Tags["turn_id"]
	}
	if turnID == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	stat := o.stats[turnID]
	if stat == nil {
		stat = &CostSummary{TurnID: turnID}
		o.stats[turnID] = stat
	}
	switch ev.Name {
	case metrics.EventToolInvoked:
		stat.ToolCalls++
	case metrics.EventTurnCompleted:
		stat.Status = ev.Tags["status"]
		if ev.Fields != nil {
			if v, ok := ev.Fields["tokens"].(int); ok {
				stat.LLMTokenCount += v
			}
		}
	}
}

func (o *CostObserver) Close() error {
	if strings.TrimSpace(o.dir) == "" {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return err
	}
	var errOut error
	for id, stat := range o.stats {
		stat.RecordedAtUTC = time.Now().UTC().Format(time.RFC3339)
		b, err := json.MarshalIndent(stat, "", "  ")
		if err != nil {
			errOut = errors.Join(errOut, err)
			continue
		}
		path := filepath.Join(o.dir, sanitizeID(id)+".cost.json")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			errOut = errors.Join(errOut, err)
		}
	}
	return errOut
}

var _ metrics.Observer = (*CostObserver)(nil)
