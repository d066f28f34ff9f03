package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morebase/couch-client/pkg/couch"
)

const followerLogPrefix = "bridge:follower"

const defaultPollInterval = 5 * time.Second

// Follower polls a database's change feed and hands every row to a
// Publisher. The last seen sequence is carried between polls so rows are
// delivered once per follower run.
type Follower struct {
	db        *couch.DB
	publisher Publisher
	interval  time.Duration
	since     string
}

// FollowerParams holds parameters for NewFollower.
type FollowerParams struct {
	DB *couch.DB
	// Publisher receives every change row. Nil discards them.
	Publisher Publisher
	// Interval between polls. Zero uses the 5s default.
	Interval time.Duration
	// Since resumes the feed from a known sequence. Empty starts from
	// the beginning.
	Since string
}

// NewFollower creates a follower for one database's change feed.
func NewFollower(params FollowerParams) (*Follower, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("%s - DB is required", followerLogPrefix)
	}
	pub := params.Publisher
	if pub == nil {
		pub = &NoOpPublisher{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Follower{
		db:        params.DB,
		publisher: pub,
		interval:  interval,
		since:     params.Since,
	}, nil
}

// Since returns the last sequence the follower has processed.
func (f *Follower) Since() string {
	return f.since
}

// Run polls the feed until ctx is cancelled. Transient feed errors are
// logged and retried on the next tick; publish errors abort the run so a
// supervisor can decide.
func (f *Follower) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if err := f.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if couch.HasCode(err, couch.CodeUsage) || couch.HasCode(err, couch.CodeConfiguration) {
				return err
			}
			slog.Warn(fmt.Sprintf("%s - poll failed, will retry: %v", followerLogPrefix, err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll reads one page of the change feed and publishes its rows.
func (f *Follower) Poll(ctx context.Context) error {
	query := map[string]any{}
	if f.since != "" {
		query["since"] = f.since
	}

	res := f.db.Changes(ctx, &couch.CallOptions{Query: query})
	if err := res.Wait(ctx); err != nil {
		return err
	}

	feed := res.RawMap()
	if feed == nil {
		return fmt.Errorf("%s - unexpected change feed payload %T", followerLogPrefix, res.Raw())
	}

	rows, _ := feed["results"].([]any)
	for _, row := range rows {
		event := f.toEvent(row)
		if event == nil {
			continue
		}
		if err := f.publisher.PublishChange(ctx, event); err != nil {
			return fmt.Errorf("%s - publish failed at seq %s: %w", followerLogPrefix, event.Seq, err)
		}
		f.since = event.Seq
	}

	if lastSeq := seqString(feed["last_seq"]); lastSeq != "" {
		f.since = lastSeq
	}
	return nil
}

func (f *Follower) toEvent(row any) *ChangeEvent {
	m, ok := row.(map[string]any)
	if !ok {
		return nil
	}
	id, _ := m["id"].(string)
	if id == "" {
		return nil
	}

	event := &ChangeEvent{
		DB:  f.db.Name(),
		ID:  id,
		Seq: seqString(m["seq"]),
	}
	event.Deleted, _ = m["deleted"].(bool)

	if changes, ok := m["changes"].([]any); ok {
		for _, ch := range changes {
			if cm, ok := ch.(map[string]any); ok {
				if rev, ok := cm["rev"].(string); ok {
					event.Revs = append(event.Revs, rev)
				}
			}
		}
	}
	return event
}

// seqString renders a change sequence, which older servers report as a
// number and newer ones as an opaque string.
func seqString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%d", int64(s))
	}
	return ""
}
