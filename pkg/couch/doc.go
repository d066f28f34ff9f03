/*
Package couch implements a client for CouchDB clusters with a
request-dispatch core that handles node failover and API-version
compatibility.

A dispatcher is constructed against the API version the application codes
for, plus one or more server clients. The client list order is the
failover order: every call tries the candidates sequentially until one
answers.

	c, err := couch.New(couch.Params{
		APIVersion: "3.3",
		ServerURL:  "http://127.0.0.1:5984",
		Username:   "admin",
		Password:   "secret",
	})

Every operation returns a *Result immediately; the transport attempt
completes it in the background. Wait for it, or attach an OnFinal
callback:

	res := c.Info(ctx, nil)
	if err := res.Wait(ctx); err != nil {
		// inspect couch.HasCode(err, couch.CodeTransport) etc.
	}
	info := res.Values()

# Compatibility policy

Endpoint methods carry the version in which the underlying REST endpoint
was introduced, deprecated or removed. Calling a removed endpoint for the
declared API version fails immediately without network activity.
Deprecation warnings are emitted once per endpoint per dispatcher through
the configured warning sink. Servers whose discovered version predates an
endpoint's introduction are skipped during failover.

# Documents

Documents implement Identifiable, either by embedding Doc in a custom
struct or by using the schemaless DynamicDoc map:

	type Person struct {
		couch.Doc
		Name string
	}

	db, _ := c.DB("people")
	res := db.PutDoc(ctx, &Person{Name: "Anna"}, nil)

After a successful save the document carries its server-assigned ID and
new revision.

# Conversions

Wire values are converted to native ones through a tag-keyed conversion
table ("isotime", "epoch", "version", "node", ...), extensible at
construction time. Converting a field that is absent from a payload is a
no-op.
*/
package couch
