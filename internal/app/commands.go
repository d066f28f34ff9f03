package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morebase/couch-client/pkg/bridge"
	"github.com/morebase/couch-client/pkg/couch"
)

const commandsLogPrefix = "app:commands"

// Info prints the server welcome document.
func (a *App) Info(ctx context.Context) error {
	res := a.couch.Info(ctx, nil)
	if err := res.Wait(ctx); err != nil {
		return err
	}
	return a.printJSON(res.Values())
}

// DBs prints the database names of the instance.
func (a *App) DBs(ctx context.Context) error {
	res := a.couch.AllDBs(ctx, nil)
	if err := res.Wait(ctx); err != nil {
		return err
	}
	return a.printJSON(res.Raw())
}

// Get prints one document.
func (a *App) Get(ctx context.Context, dbName, id string) error {
	db, err := a.couch.DB(dbName)
	if err != nil {
		return err
	}
	res := db.GetDoc(ctx, id, nil)
	if err := res.Wait(ctx); err != nil {
		return err
	}
	return a.printJSON(res.Raw())
}

// Put saves a document given as JSON text and prints its new identity.
func (a *App) Put(ctx context.Context, dbName, docJSON string) error {
	db, err := a.couch.DB(dbName)
	if err != nil {
		return err
	}

	doc := couch.DynamicDoc{}
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return fmt.Errorf("%s - document is not valid JSON: %w", commandsLogPrefix, err)
	}

	res := db.PutDoc(ctx, doc, nil)
	if err := res.Wait(ctx); err != nil {
		return err
	}
	id, rev := doc.IDRev()
	return a.printJSON(map[string]any{"id": id, "rev": rev})
}

// Del deletes a document revision.
func (a *App) Del(ctx context.Context, dbName, id, rev string) error {
	db, err := a.couch.DB(dbName)
	if err != nil {
		return err
	}
	res := db.DeleteDoc(ctx, id, rev, nil)
	if err := res.Wait(ctx); err != nil {
		return err
	}
	return a.printJSON(res.Raw())
}

// Changes follows a database change feed until ctx is cancelled. With
// publish set, every change is republished to COMMS; otherwise changes
// are printed to the command output.
func (a *App) Changes(ctx context.Context, dbName string, publish bool) error {
	db, err := a.couch.DB(dbName)
	if err != nil {
		return err
	}

	var pub bridge.Publisher
	if publish {
		if err := a.cfg.ValidateForBridge(); err != nil {
			return err
		}
		nc, err := bridge.Connect(a.cfg.COMMSURL, a.cfg.COMMSName)
		if err != nil {
			return err
		}
		defer nc.Close()

		var opts *bridge.CommsPublisherOpts
		if a.cfg.ChangeSubject != "" {
			opts = &bridge.CommsPublisherOpts{GlobalSubject: a.cfg.ChangeSubject}
		}
		pub = bridge.NewCommsPublisher(nc, opts)
	} else {
		pub = bridge.NewCallbackPublisher(func(_ context.Context, event *bridge.ChangeEvent) error {
			return a.printJSON(event)
		})
	}

	follower, err := bridge.NewFollower(bridge.FollowerParams{
		DB:        db,
		Publisher: pub,
		Interval:  a.cfg.PollInterval,
	})
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Following changes on %s (publish=%t)", commandsLogPrefix, dbName, publish))
	return follower.Run(ctx)
}
