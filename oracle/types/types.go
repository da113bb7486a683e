package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"

	rotypes "github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// Job is a dispatched request waiting to be executed off-chain.
type Job struct {
	RequestID      common.Hash
	Source         string
	Secrets        *rotypes.SecretsRef
	SubscriptionID uint64
	GasLimit       uint32
	DonID          common.Hash
	Nonce          uint64
}

// JobResult carries either a 32-byte response or the error bytes for a job.
type JobResult struct {
	RequestID common.Hash
	Response  []byte
	Err       []byte
}

func (jr JobResult) Failed() bool {
	return len(jr.Err) > 0
}

func NewJob(requestID common.Hash, req rotypes.FunctionsRequest, nonce uint64) Job {
	return Job{
		RequestID:      requestID,
		Source:         req.Source,
		Secrets:        req.Secrets,
		SubscriptionID: req.SubscriptionID,
		GasLimit:       req.GasLimit,
		DonID:          req.DonID,
		Nonce:          nonce,
	}
}

// JobsFromPending rebuilds jobs for requests left open across a restart. The
// current config is used since the original request is not stored on chain.
func JobsFromPending(pending []rotypes.PendingRequest, cfg rotypes.OracleConfig) []Job {
	if len(pending) == 0 {
		return nil
	}

	jobs := make([]Job, 0, len(pending))
	for _, req := range pending {
		jobs = append(jobs, Job{
			RequestID:      req.RequestID,
			Source:         cfg.Source,
			SubscriptionID: cfg.SubscriptionID,
			GasLimit:       cfg.GasLimit,
			DonID:          cfg.DonID,
		})
	}
	return jobs
}

// Layout selects how a source response is turned into a bitmap.
type Layout string

const (
	// LayoutBitmap reads a packed bitmap, decimal or 0x hex, from Path.
	LayoutBitmap Layout = "bitmap"
	// LayoutSplit reads two values and packs them as upper<<16 | lower.
	LayoutSplit Layout = "split"
	// LayoutLanes reads one value per lane, lane 0 first.
	LayoutLanes Layout = "lanes"
)

// Source describes where and how to fetch rates.
type Source struct {
	URL    string
	Layout Layout
	Path   string
	Upper  string
	Lower  string
	Lanes  []string
}

// ParseSource decodes the JSON source document configured on chain.
func ParseSource(raw string) (Source, error) {
	if !gjson.Valid(raw) {
		return Source{}, fmt.Errorf("source is not valid JSON")
	}

	doc := gjson.Parse(raw)
	src := Source{
		URL:    doc.Get("url").String(),
		Layout: Layout(doc.Get("layout").String()),
		Path:   doc.Get("path").String(),
		Upper:  doc.Get("upper").String(),
		Lower:  doc.Get("lower").String(),
	}
	for _, lane := range doc.Get("lanes").Array() {
		src.Lanes = append(src.Lanes, lane.String())
	}

	if src.URL == "" {
		return Source{}, fmt.Errorf("source url is required")
	}
	if src.Layout == "" {
		src.Layout = LayoutBitmap
	}

	switch src.Layout {
	case LayoutBitmap:
		if src.Path == "" {
			src.Path = "bitmap"
		}
	case LayoutSplit:
		if src.Upper == "" || src.Lower == "" {
			return Source{}, fmt.Errorf("split layout requires upper and lower paths")
		}
	case LayoutLanes:
		if len(src.Lanes) == 0 || len(src.Lanes) > rotypes.MaxLanes {
			return Source{}, fmt.Errorf("lanes layout requires 1 to %d paths, got %d", rotypes.MaxLanes, len(src.Lanes))
		}
	default:
		return Source{}, fmt.Errorf("unknown layout: %s", src.Layout)
	}

	return src, nil
}
