package pipeline

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/urbansignals/floodwatch/internal/model"
	"github.com/urbansignals/floodwatch/internal/spatial"
)

// JoinResult carries the output of the spatial join stage.
type JoinResult struct {
	Joined     []model.JoinedComplaint
	Assigned   int64
	Unassigned int64
}

// Join assigns each complaint to the census tract containing its point.
// Complaints outside every tract keep an empty GEOID and are counted, not
// dropped. Output order matches input order regardless of worker count.
func Join(ctx context.Context, complaints []model.Complaint, idx *spatial.Index) (*JoinResult, error) {
	out := make([]model.JoinedComplaint, len(complaints))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(complaints) {
		workers = len(complaints)
	}
	if workers < 1 {
		workers = 1
	}

	var assigned, unassigned int64
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	chunk := (len(complaints) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(complaints) {
			end = len(complaints)
		}
		if start >= end {
			break
		}
		g.Go(func() error {
			var localAssigned, localUnassigned int64
			for i := start; i < end; i++ {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				c := complaints[i]
				out[i] = model.JoinedComplaint{Complaint: c}
				if t := idx.Locate(c.Longitude, c.Latitude); t != nil {
					out[i].TractGEOID = t.GEOID
					localAssigned++
				} else {
					localUnassigned++
				}
			}
			mu.Lock()
			assigned += localAssigned
			unassigned += localUnassigned
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &JoinResult{Joined: out, Assigned: assigned, Unassigned: unassigned}, nil
}
