package app

import (
	"time"

	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/monitoring"
	"github.com/ayusman/repcount/internal/plugin"
	"github.com/ayusman/repcount/internal/store"
)

// startSession opens a stored session for kind. Callers hold submitMu.
func (a *App) startSession(kind exercise.Kind, now time.Time) {
	s := a.config.Store
	if s == nil {
		return
	}
	session := &store.Session{Exercise: kind, StartedAt: now}
	if err := s.Sessions().Create(session); err != nil {
		monitoring.Logf("Failed to create session: %v", err)
		return
	}
	a.session = session
}

// endSession closes a hold still in progress, stores the session with the
// engine's totals and fires session_end hooks. Callers hold submitMu.
func (a *App) endSession(now time.Time) {
	session := a.session
	if session == nil {
		return
	}
	a.session = nil

	if h, c := a.engine.FinishHold(); h != nil {
		res := counter.FrameResult{
			Status:      counter.StatusEvaluated,
			Exercise:    session.Exercise,
			Time:        now,
			RepCount:    c.RepCount,
			Phase:       counter.PhaseIdle,
			Label:       h.Label,
			Summary:     c.Summary,
			HoldSummary: h,
		}
		a.recordHold(session, res)
		a.broadcast(res)
	}

	c := a.engine.Counters()
	totals := store.SessionTotals{
		RepCount:         c.RepCount,
		HoldCount:        c.HoldCount,
		TotalHoldSeconds: c.TotalHoldSeconds,
	}
	if err := a.config.Store.Sessions().End(session.ID, now, totals); err != nil {
		monitoring.Logf("Failed to end session %s: %v", session.ID, err)
	}

	count := c.RepCount
	if session.Exercise.Isometric() {
		count = c.HoldCount
	}
	a.fireHooks(store.HookEventSessionEnd, session.Exercise, count, c.Summary)
}

// record persists the events in res and triggers matching hooks.
// Callers hold submitMu.
func (a *App) record(res counter.FrameResult) {
	if res.RepCommitted {
		kind := exercise.Kind(res.Label)
		if a.session != nil {
			ev := &store.RepEvent{
				SessionID: a.session.ID,
				Count:     res.RepCount,
				Label:     res.Label,
				At:        res.Time,
			}
			if err := a.config.Store.Reps().Record(ev); err != nil {
				monitoring.Logf("Failed to record rep: %v", err)
			}
		}
		a.fireHooks(store.HookEventRep, kind, res.RepCount, res.Summary)
	}

	if res.HoldSummary != nil {
		a.recordHold(a.session, res)
	}
}

// recordHold stores the finished hold in res against session and triggers
// hold hooks. Callers hold submitMu.
func (a *App) recordHold(session *store.Session, res counter.FrameResult) {
	h := res.HoldSummary
	if session != nil {
		ev := &store.HoldEvent{
			SessionID: session.ID,
			Label:     h.Label,
			Seconds:   h.Seconds(),
			At:        res.Time,
		}
		if err := a.config.Store.Holds().Record(ev); err != nil {
			monitoring.Logf("Failed to record hold: %v", err)
		}
	}
	holds := a.engine.Counters().HoldCount
	a.fireHooks(store.HookEventHold, exercise.Kind(h.Label), holds, res.Summary)
}

// fireHooks runs every enabled hook for event and kind in the background.
func (a *App) fireHooks(event store.HookEvent, kind exercise.Kind, count int, summary string) {
	s := a.config.Store
	if s == nil {
		return
	}
	hooks, err := s.Hooks().ListForEvent(event, kind)
	if err != nil {
		monitoring.Logf("Failed to list %s hooks: %v", event, err)
		return
	}

	for _, h := range hooks {
		p, err := a.pluginMgr.Get(h.PluginName)
		if err != nil {
			monitoring.Logf("Hook %s: %v", h.ID, err)
			continue
		}
		req := &plugin.Request{
			Action:   h.ActionName,
			Event:    string(event),
			Exercise: string(kind),
			Count:    count,
			Summary:  summary,
			Config:   h.Config,
		}

		a.hookWG.Add(1)
		go func(hookID string) {
			defer a.hookWG.Done()
			resp, err := a.pluginExec.ExecuteContext(a.hookCtx, p, req)
			switch {
			case err != nil:
				monitoring.Logf("Hook %s (%s/%s) failed: %v", hookID, p.Manifest.Name, req.Action, err)
			case !resp.Success:
				monitoring.Logf("Hook %s (%s/%s) reported: %s", hookID, p.Manifest.Name, req.Action, resp.Error)
			}
		}(h.ID)
	}
}

// WaitHooks blocks until every running hook has finished.
func (a *App) WaitHooks() {
	a.hookWG.Wait()
}
