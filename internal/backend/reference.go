package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/midagedev/jongodb-differ/internal/runid"
	"github.com/midagedev/jongodb-differ/internal/scenario"
)

// ReferenceBackend routes Scenarios against a real server, per §4.1: opens a
// client to a URI, drops a scenario-local database (prefix_<sanitized-
// scenario-id>), executes each command, routes commitTransaction/
// abortTransaction to admin, strips $db and lsid, coerces txnNumber to a
// 64-bit integer, and pools ClientSessions keyed by the stringified lsid.id.
type ReferenceBackend struct {
	Client         *mongo.Client
	DatabasePrefix string
	breaker        *gobreaker.CircuitBreaker
}

func NewReferenceBackend(ctx context.Context, uri, databasePrefix string) (*ReferenceBackend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("backend: connect reference server: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("backend: ping reference server: %w", err)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "reference-backend",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &ReferenceBackend{Client: client, DatabasePrefix: databasePrefix, breaker: breaker}, nil
}

func (b *ReferenceBackend) Name() string { return "reference" }

func (b *ReferenceBackend) Close(ctx context.Context) error {
	return b.Client.Disconnect(ctx)
}

func (b *ReferenceBackend) Execute(ctx context.Context, s scenario.Scenario) Outcome {
	dbName := runid.ReferenceDatabaseName(b.DatabasePrefix, s.ID)
	db := b.Client.Database(dbName)
	if err := db.Drop(ctx); err != nil {
		return Failure(fmt.Sprintf("reference backend: failed to reset database %q: %v", dbName, err))
	}

	sessions := make(map[string]mongo.Session)
	defer func() {
		for _, sess := range sessions {
			sess.EndSession(context.Background())
		}
	}()

	results := make([]map[string]any, 0, len(s.Commands))
	for i, cmd := range s.Commands {
		doc, err := scenario.BuildCommandDocument(cmd, dbName)
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, err.Error(), 0, ""))
		}

		targetDB := db
		switch strings.ToLower(cmd.CommandName) {
		case "committransaction", "aborttransaction":
			targetDB = b.Client.Database("admin")
		}

		doc = stripField(doc, "$db")
		var sess mongo.Session
		if lsidVal, ok := fieldValue(doc, "lsid"); ok {
			doc = stripField(doc, "lsid")
			key := stringifyLsidID(lsidVal)
			var err error
			sess, err = b.sessionFor(sessions, key)
			if err != nil {
				return Failure(FormatFailure(cmd.CommandName, i, fmt.Sprintf("start session: %v", err), 0, ""))
			}
		}
		doc = coerceTxnNumberInt64(doc)

		raw, err := b.runCommand(ctx, targetDB, sess, doc)
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, fmt.Sprintf("transport error: %v", err), 0, ""))
		}

		respDoc, err := DecodeDocument(raw)
		if err != nil {
			return Failure(FormatFailure(cmd.CommandName, i, err.Error(), 0, ""))
		}
		respDoc = NormalizeReferenceResponse(cmd.CommandName, respDoc)

		ok, msg, code, codeName := ClassifyResponse(respDoc)
		if !ok {
			return Failure(FormatFailure(cmd.CommandName, i, msg, code, codeName))
		}
		results = append(results, respDoc)
	}
	return Success(results)
}

func (b *ReferenceBackend) sessionFor(pool map[string]mongo.Session, key string) (mongo.Session, error) {
	if sess, ok := pool[key]; ok {
		return sess, nil
	}
	sess, err := b.Client.StartSession()
	if err != nil {
		return nil, err
	}
	pool[key] = sess
	return sess, nil
}

func (b *ReferenceBackend) runCommand(ctx context.Context, db *mongo.Database, sess mongo.Session, doc bson.D) (bson.Raw, error) {
	var raw bson.Raw
	run := func() error {
		if sess == nil {
			return db.RunCommand(ctx, doc).Decode(&raw)
		}
		return mongo.WithSession(ctx, sess, func(sctx mongo.SessionContext) error {
			return db.RunCommand(sctx, doc).Decode(&raw)
		})
	}
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, run()
	})
	if err != nil && raw == nil {
		return nil, err
	}
	return raw, nil
}

func stripField(doc bson.D, key string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key == key {
			continue
		}
		out = append(out, e)
	}
	return out
}

func fieldValue(doc bson.D, key string) (any, bool) {
	for _, e := range doc {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// stringifyLsidID renders an lsid.id field (typically a UUID-valued binary)
// into a stable pooling key.
func stringifyLsidID(lsid any) string {
	if m, ok := lsid.(bson.M); ok {
		return fmt.Sprintf("%v", m["id"])
	}
	if d, ok := lsid.(bson.D); ok {
		for _, e := range d {
			if e.Key == "id" {
				return fmt.Sprintf("%v", e.Value)
			}
		}
	}
	return fmt.Sprintf("%v", lsid)
}

// coerceTxnNumberInt64 normalizes a txnNumber field to a 64-bit integer,
// since scenario payloads may declare it as Int32 or Int64 interchangeably.
func coerceTxnNumberInt64(doc bson.D) bson.D {
	out := make(bson.D, len(doc))
	for i, e := range doc {
		if e.Key == "txnNumber" {
			switch v := e.Value.(type) {
			case int32:
				e.Value = int64(v)
			case int:
				e.Value = int64(v)
			}
		}
		out[i] = e
	}
	return out
}
