package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/ayusman/lungescore/internal/hook"
	"github.com/ayusman/lungescore/internal/pose"
	"github.com/ayusman/lungescore/internal/session"
)

// Summary totals a run.
type Summary struct {
	Frames        int      `json:"frames"`
	PresentFrames int      `json:"presentFrames"`
	ScoredFrames  int      `json:"scoredFrames"`
	SkippedFrames int      `json:"skippedFrames"` // envelopes that failed to decode
	Reps          int      `json:"reps"`
	BestCosine    *int     `json:"bestCosine,omitempty"`
	BestDTW       *float64 `json:"bestDtw,omitempty"`
}

func (s *Summary) add(r session.Result) {
	s.Frames++
	if r.HumanPresent {
		s.PresentFrames++
	}
	if r.Scorable {
		s.ScoredFrames++
	}
	s.Reps = r.RepCount
	if r.CosineScore != nil && (s.BestCosine == nil || *r.CosineScore > *s.BestCosine) {
		v := *r.CosineScore
		s.BestCosine = &v
	}
	if r.DTWDistance != nil && (s.BestDTW == nil || *r.DTWDistance < *s.BestDTW) {
		v := *r.DTWDistance
		s.BestDTW = &v
	}
}

// runPipeline is the frame loop.
//
// Pipeline logic:
// 1. Read the next frame, pacing to FPS when set
// 2. Skip envelopes that fail to decode, keep going
// 3. Score the frame and fold it into the summary
// 4. Log presence changes and completed reps, firing hooks for each
// 5. Stop on io.EOF, a source error, or ctx cancellation
func (a *App) runPipeline(ctx context.Context, src pose.Source) error {
	defer a.hookWG.Wait()

	var tick <-chan time.Time
	if a.config.FPS > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	wasPresent := false
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var pe *pose.DecodeError
			if errors.As(err, &pe) {
				log.Printf("Skipping frame: %v", err)
				a.mu.Lock()
				a.summary.SkippedFrames++
				a.mu.Unlock()
				continue
			}
			return err
		}

		r := a.session.Update(frame)

		a.mu.Lock()
		a.summary.add(r)
		onResult := a.onResult
		a.mu.Unlock()

		if r.HumanPresent != wasPresent {
			wasPresent = r.HumanPresent
			if wasPresent {
				log.Println("Person detected")
				a.fire(hook.EventPersonDetected, r)
			} else {
				log.Println("Person lost")
				a.fire(hook.EventPersonLost, r)
			}
		}
		if r.RepCompleted {
			log.Printf("Rep %d completed (%s leg)", r.RepCount, r.DominantLeg)
			a.fire(hook.EventRepCompleted, r)
		}

		if onResult != nil {
			onResult(r)
		}
	}
}

// fire runs every hook subscribed to ev in the background. The pipeline waits
// for outstanding hooks before returning.
func (a *App) fire(ev hook.Event, r session.Result) {
	if a.hooks == nil {
		return
	}
	hooks := a.hooks.For(ev)
	if len(hooks) == 0 {
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("Failed to encode result for hooks: %v", err)
		return
	}

	for _, h := range hooks {
		req := &hook.Request{Event: ev, Session: a.session.ID(), Result: data}
		a.hookWG.Add(1)
		go func(h *hook.Hook) {
			defer a.hookWG.Done()
			resp, err := a.executor.Execute(context.Background(), h, req)
			if err != nil {
				log.Printf("Hook %s: %v", h.Manifest.Name, err)
				return
			}
			if !resp.Success {
				log.Printf("Hook %s reported failure: %s", h.Manifest.Name, resp.Error)
			}
		}(h)
	}
}
