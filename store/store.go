// Package store implements the Document Store Client: typed,
// read-only access to the versioned code-graph collections. It is the only
// component that knows the `nodes_<dotless-version>` naming convention.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/evalgo-org/grafo-query/apperr"
)

// CallTimeout bounds every store operation.
const CallTimeout = 10 * time.Second

const collectionPrefix = "nodes_"

// Client wraps a *mongo.Client with version-aware collection resolution.
// One Client is created at startup and shared by every request as
// process-wide state; it is safe for concurrent use.
type Client struct {
	mongo *mongo.Client
	db    *mongo.Database
	log   *logrus.Logger
}

// Config carries the connection parameters loaded from the environment.
type Config struct {
	URI      string
	Database string
}

// Connect dials the document store and verifies connectivity with a ping,
// mirroring the connect-then-probe lifecycle of the repository pattern this
// client is grounded on.
func Connect(ctx context.Context, cfg Config, log *logrus.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "connect to document store", err)
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "ping document store", err)
	}

	return &Client{mongo: mc, db: mc.Database(cfg.Database), log: log}, nil
}

// Close disconnects the underlying mongo client. Called once at shutdown.
func (c *Client) Close(ctx context.Context) error {
	return c.mongo.Disconnect(ctx)
}

// CollectionName converts a dotted version tag ("7.10.2") into the
// physical collection name ("nodes_7_10_2") its versioning invariant.
func CollectionName(version string) string {
	return collectionPrefix + strings.ReplaceAll(version, ".", "_")
}

// versionFromCollection reverses CollectionName for ListVersions.
func versionFromCollection(name string) (string, bool) {
	if !strings.HasPrefix(name, collectionPrefix) {
		return "", false
	}
	return strings.ReplaceAll(strings.TrimPrefix(name, collectionPrefix), "_", "."), true
}

// ListVersions enumerates the versions currently available by listing
// collections matching the `nodes_*` pattern.
func (c *Client) ListVersions(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	names, err := c.db.ListCollectionNames(ctx, bson.M{"name": bson.M{"$regex": "^" + collectionPrefix}})
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "list versions", err)
	}

	versions := make([]string, 0, len(names))
	for _, n := range names {
		if v, ok := versionFromCollection(n); ok {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// Resolve returns the collection handle for version, failing with
// VersionUnavailable when the collection is absent or empty — never a
// silent empty success.
func (c *Client) Resolve(ctx context.Context, version string) (*mongo.Collection, error) {
	coll := c.db.Collection(CollectionName(version))

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	count, err := coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "count collection for version "+version, err)
	}
	if count == 0 {
		available, _ := c.ListVersions(ctx)
		return nil, &VersionUnavailableError{Version: version, Available: available}
	}
	return coll, nil
}

// VersionUnavailableError carries the set of versions that do exist, so
// callers can report them instead of returning an empty result.
type VersionUnavailableError struct {
	Version   string
	Available []string
}

func (e *VersionUnavailableError) Error() string {
	return "version unavailable: " + e.Version
}

// AsAppError converts a VersionUnavailableError into the shared apperr kind.
func (e *VersionUnavailableError) AsAppError() *apperr.Error {
	return apperr.New(apperr.VersionUnavailable, e.Error())
}
