package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evalgo-org/grafo-query/apperr"
)

// GetByID returns a single document by its exact _id, or nil if absent.
func (c *Client) GetByID(ctx context.Context, coll *mongo.Collection, id string) (bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	var doc bson.M
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "find by id", err)
	}
	return doc, nil
}

// FetchByIDs batch-resolves a set of node IDs in one round trip, skipping
// any ID absent in the collection (dead edges). The
// result is keyed by _id so callers can do O(1) lookups during a traversal.
func (c *Client) FetchByIDs(ctx context.Context, coll *mongo.Collection, ids []string) (map[string]bson.M, error) {
	if len(ids) == 0 {
		return map[string]bson.M{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	cur, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "fetch by ids", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M, len(ids))
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode node document", err)
		}
		if id, ok := doc["_id"].(string); ok {
			out[id] = doc
		}
	}
	return out, cur.Err()
}

// Find runs a plain filtered query bounded by limit (0 = unbounded, per
// boundary behavior "limit=0 returns empty list, not an error" — callers
// are expected to special-case 0 before invoking Find).
func (c *Client) Find(ctx context.Context, coll *mongo.Collection, filter bson.M, limit int64) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "find", err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode find results", err)
	}
	return docs, nil
}

// GraphLookup expands outward from a single anchor document using mongo's
// native $graphLookup stage, the store's own recursive-traversal primitive.
// startWithField names the field on the anchor document
// whose value seeds the walk: passing the id field walks documents that
// point AT the anchor transitively (callers, inheritors — "who references
// me"); passing a relationship field like "calls" walks documents the
// anchor points TO (callees — "who do I reference"). connectFromField and
// connectToField are mongo's usual graphLookup pair: each discovered
// document's connectFromField becomes the next hop's search value against
// connectToField. depthField on every returned document carries the
// 0-based hop count.
func (c *Client) GraphLookup(ctx context.Context, coll *mongo.Collection, anchorID, startWithField, connectFromField, connectToField string, maxDepth int) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	pipeline := bson.A{
		bson.M{"$match": bson.M{"_id": anchorID}},
		bson.M{"$graphLookup": bson.M{
			"from":             coll.Name(),
			"startWith":        "$" + startWithField,
			"connectFromField": connectFromField,
			"connectToField":   connectToField,
			"as":               "_expansion",
			"maxDepth":         maxDepth,
			"depthField":       "_depth",
		}},
	}

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "graphLookup", err)
	}
	defer cur.Close(ctx)

	var anchors []bson.M
	if err := cur.All(ctx, &anchors); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode graphLookup results", err)
	}
	if len(anchors) == 0 {
		return nil, nil
	}

	expansion, _ := anchors[0]["_expansion"].(bson.A)
	docs := make([]bson.M, 0, len(expansion))
	for _, e := range expansion {
		if m, ok := e.(bson.M); ok {
			docs = append(docs, m)
		}
	}
	return docs, nil
}

// Count runs an exact CountDocuments for a filtered query; used by Statistics.
func (c *Client) Count(ctx context.Context, coll *mongo.Collection, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, "count", err)
	}
	return n, nil
}

// Aggregate runs an arbitrary pipeline and decodes every result document.
func (c *Client) Aggregate(ctx context.Context, coll *mongo.Collection, pipeline bson.A) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "aggregate", err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode aggregate results", err)
	}
	return docs, nil
}
