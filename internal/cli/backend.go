package cli

import (
	"context"
	"fmt"

	"github.com/evcraddock/shepherd/internal/client"
	"github.com/evcraddock/shepherd/internal/config"
	"github.com/evcraddock/shepherd/internal/db"
	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/member"
)

// backend is what commands run against: the local database or a server.
type backend interface {
	CreateFollowUp(ctx context.Context, in followup.Input) (*followup.View, error)
	GetFollowUp(ctx context.Context, id string) (*followup.View, error)
	UpdateFollowUp(ctx context.Context, id string, in followup.Input) (*followup.View, error)
	DeleteFollowUp(ctx context.Context, id string) error
	ScheduleNext(ctx context.Context, id string) (*followup.View, error)
	ListFollowUps(ctx context.Context, f followup.Filter) (*followup.ListResult, error)
	Stats(ctx context.Context) (*followup.Stats, error)

	AddMember(ctx context.Context, m member.Member) (*member.Member, error)
	GetMember(ctx context.Context, id string) (*member.Member, error)
	ListMembers(ctx context.Context, search string) ([]*member.Member, error)
	DeleteMember(ctx context.Context, id string) error

	Close() error
}

// openBackend picks the server when one is configured, else the local database.
func openBackend() (backend, error) {
	if url := getServerURL(); url != "" {
		return remoteBackend{client.New(url)}, nil
	}

	driver, dsn, err := localDSN()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return newLocalBackend(database), nil
}

// localDSN resolves the database from --driver/--db, falling back to .env
// and the environment the same way serve does.
func localDSN() (string, string, error) {
	cfg, err := config.Load()
	if err != nil && flagDB == "" {
		return "", "", err
	}
	driver, dsn := cfg.DBDriver, cfg.DBDSN
	if flagDriver != "" && flagDriver != driver {
		if flagDB == "" {
			return "", "", fmt.Errorf("--db is required with --driver %s", flagDriver)
		}
		driver = flagDriver
	}
	if flagDB != "" {
		dsn = flagDB
	}
	if driver == "" {
		driver = db.DriverSQLite
	}
	return driver, dsn, nil
}

type remoteBackend struct {
	*client.Client
}

func (remoteBackend) Close() error { return nil }

type localBackend struct {
	db      *db.DB
	svc     *followup.Service
	members *member.Repository
}

func newLocalBackend(d *db.DB) *localBackend {
	members := member.NewRepository(d)
	return &localBackend{
		db:      d,
		svc:     followup.NewService(followup.NewRepository(d), members),
		members: members,
	}
}

func (b *localBackend) CreateFollowUp(ctx context.Context, in followup.Input) (*followup.View, error) {
	return b.svc.Create(ctx, in)
}

func (b *localBackend) GetFollowUp(ctx context.Context, id string) (*followup.View, error) {
	return b.svc.Get(ctx, id)
}

func (b *localBackend) UpdateFollowUp(ctx context.Context, id string, in followup.Input) (*followup.View, error) {
	return b.svc.Update(ctx, id, in)
}

func (b *localBackend) DeleteFollowUp(ctx context.Context, id string) error {
	return b.svc.Delete(ctx, id)
}

func (b *localBackend) ScheduleNext(ctx context.Context, id string) (*followup.View, error) {
	return b.svc.ScheduleNext(ctx, id)
}

func (b *localBackend) ListFollowUps(ctx context.Context, f followup.Filter) (*followup.ListResult, error) {
	return b.svc.List(ctx, f)
}

func (b *localBackend) Stats(ctx context.Context) (*followup.Stats, error) {
	return b.svc.Stats(ctx)
}

func (b *localBackend) AddMember(ctx context.Context, m member.Member) (*member.Member, error) {
	return b.members.Add(ctx, m)
}

func (b *localBackend) GetMember(ctx context.Context, id string) (*member.Member, error) {
	return b.members.GetByID(ctx, id)
}

func (b *localBackend) ListMembers(ctx context.Context, search string) ([]*member.Member, error) {
	return b.members.List(ctx, search)
}

func (b *localBackend) DeleteMember(ctx context.Context, id string) error {
	return b.members.Delete(ctx, id)
}

func (b *localBackend) Close() error {
	return b.db.Close()
}
