// Package runrecord provides a MongoDB-backed implementation of
// session.Store, grounded on
// features/session/mongo/clients/mongo/client.go, adapted from agent-run
// metadata (AgentID, workflow labels) to research-run metadata (Topic,
// Mode, EpochsRun, FinalReport). Optional: callers that don't configure a
// Mongo URI simply never construct a runrecord.Store and use
// session.NewMemStore instead.
package runrecord

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"goa.design/clue/health"

	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/session"
)

const (
	defaultSessionsCollection = "research_sessions"
	defaultRunsCollection     = "research_runs"
	defaultOpTimeout          = 5 * time.Second
	clientName                = "runrecord-mongo"
)

// Store implements session.Store backed by MongoDB, plus health.Pinger so
// it can be registered with the engine's health checker the way every
// other Mongo-backed feature in the pack is.
type Store struct {
	client   *mongo.Client
	sessions *mongo.Collection
	runs     *mongo.Collection
	timeout  time.Duration
}

var _ session.Store = (*Store)(nil)
var _ health.Pinger = (*Store)(nil)

// Options configures the Mongo-backed Store.
type Options struct {
	Client             *mongo.Client
	Database           string
	SessionsCollection string
	RunsCollection     string
	Timeout            time.Duration
}

// New builds a Store and ensures its indexes exist.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("runrecord: mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("runrecord: database name is required")
	}
	sessionsCollection := opts.SessionsCollection
	if sessionsCollection == "" {
		sessionsCollection = defaultSessionsCollection
	}
	runsCollection := opts.RunsCollection
	if runsCollection == "" {
		runsCollection = defaultRunsCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}

	s := &Store{
		client:   opts.Client,
		sessions: opts.Client.Database(opts.Database).Collection(sessionsCollection),
		runs:     opts.Client.Database(opts.Database).Collection(runsCollection),
		timeout:  timeout,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Name implements health.Pinger.
func (s *Store) Name() string { return clientName }

// Ping implements health.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	sessionIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.sessions.Indexes().CreateOne(ctx, sessionIndex); err != nil {
		return err
	}
	runIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.runs.Indexes().CreateOne(ctx, runIndex); err != nil {
		return err
	}
	runSessionIndex := mongo.IndexModel{Keys: bson.D{{Key: "session_id", Value: 1}}}
	_, err := s.runs.Indexes().CreateOne(ctx, runSessionIndex)
	return err
}

type sessionDocument struct {
	SessionID string         `bson:"session_id"`
	Status    session.Status `bson:"status"`
	CreatedAt time.Time      `bson:"created_at"`
	EndedAt   *time.Time     `bson:"ended_at,omitempty"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

func (d sessionDocument) toSession() session.Session {
	var endedAt *time.Time
	if d.EndedAt != nil {
		at := d.EndedAt.UTC()
		endedAt = &at
	}
	return session.Session{ID: d.SessionID, Status: d.Status, CreatedAt: d.CreatedAt.UTC(), EndedAt: endedAt}
}

type runDocument struct {
	RunID       string             `bson:"run_id"`
	SessionID   string             `bson:"session_id"`
	Topic       string             `bson:"topic"`
	Mode        config.Mode        `bson:"mode"`
	Status      session.RunStatus  `bson:"status"`
	StartedAt   time.Time          `bson:"started_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	EpochsRun   int                `bson:"epochs_run"`
	FinalReport string             `bson:"final_report,omitempty"`
	Metadata    map[string]any     `bson:"metadata,omitempty"`
}

func fromRunMeta(run session.RunMeta) runDocument {
	return runDocument{
		RunID:       run.RunID,
		SessionID:   run.SessionID,
		Topic:       run.Topic,
		Mode:        run.Mode,
		Status:      run.Status,
		StartedAt:   run.StartedAt.UTC(),
		UpdatedAt:   run.UpdatedAt.UTC(),
		EpochsRun:   run.EpochsRun,
		FinalReport: run.FinalReport,
		Metadata:    run.Metadata,
	}
}

func (d runDocument) toRunMeta() session.RunMeta {
	return session.RunMeta{
		RunID:       d.RunID,
		SessionID:   d.SessionID,
		Topic:       d.Topic,
		Mode:        d.Mode,
		Status:      d.Status,
		StartedAt:   d.StartedAt,
		UpdatedAt:   d.UpdatedAt,
		EpochsRun:   d.EpochsRun,
		FinalReport: d.FinalReport,
		Metadata:    d.Metadata,
	}
}

// CreateSession implements session.Store.
func (s *Store) CreateSession(ctx context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	if sessionID == "" {
		return session.Session{}, errors.New("runrecord: session id is required")
	}
	existing, err := s.LoadSession(ctx, sessionID)
	if err == nil {
		if existing.Status == session.StatusEnded {
			return session.Session{}, session.ErrSessionEnded
		}
		return existing, nil
	}
	if !errors.Is(err, session.ErrSessionNotFound) {
		return session.Session{}, err
	}

	now := time.Now().UTC()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"session_id": sessionID,
			"status":     session.StatusActive,
			"created_at": createdAt.UTC(),
			"updated_at": now,
		},
	}
	if _, err := s.sessions.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return session.Session{}, err
	}
	return s.LoadSession(ctx, sessionID)
}

// LoadSession implements session.Store.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var doc sessionDocument
	if err := s.sessions.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, err
	}
	return doc.toSession(), nil
}

// EndSession implements session.Store.
func (s *Store) EndSession(ctx context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	existing, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if existing.Status == session.StatusEnded {
		return existing, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	update := bson.M{"$set": bson.M{
		"status":     session.StatusEnded,
		"ended_at":   endedAt.UTC(),
		"updated_at": time.Now().UTC(),
	}}
	if _, err := s.sessions.UpdateOne(ctx, bson.M{"session_id": sessionID}, update); err != nil {
		return session.Session{}, err
	}
	return s.LoadSession(ctx, sessionID)
}

// UpsertRun implements session.Store.
func (s *Store) UpsertRun(ctx context.Context, run session.RunMeta) error {
	if run.RunID == "" {
		return errors.New("runrecord: run id is required")
	}
	if run.SessionID == "" {
		return errors.New("runrecord: session id is required")
	}
	now := time.Now().UTC()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	run.UpdatedAt = now
	doc := fromRunMeta(run)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	update := bson.M{
		"$set": bson.M{
			"run_id":       doc.RunID,
			"session_id":   doc.SessionID,
			"topic":        doc.Topic,
			"mode":         doc.Mode,
			"status":       doc.Status,
			"updated_at":   doc.UpdatedAt,
			"epochs_run":   doc.EpochsRun,
			"final_report": doc.FinalReport,
			"metadata":     doc.Metadata,
		},
		"$setOnInsert": bson.M{"started_at": doc.StartedAt},
	}
	_, err := s.runs.UpdateOne(ctx, bson.M{"run_id": run.RunID}, update, options.UpdateOne().SetUpsert(true))
	return err
}

// LoadRun implements session.Store.
func (s *Store) LoadRun(ctx context.Context, runID string) (session.RunMeta, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var doc runDocument
	if err := s.runs.FindOne(ctx, bson.M{"run_id": runID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return session.RunMeta{}, session.ErrRunNotFound
		}
		return session.RunMeta{}, err
	}
	return doc.toRunMeta(), nil
}

// ListRunsBySession implements session.Store.
func (s *Store) ListRunsBySession(ctx context.Context, sessionID string, statuses []session.RunStatus) ([]session.RunMeta, error) {
	filter := bson.M{"session_id": sessionID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.runs.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []session.RunMeta
	for cur.Next(ctx) {
		var doc runDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRunMeta())
	}
	return out, cur.Err()
}
