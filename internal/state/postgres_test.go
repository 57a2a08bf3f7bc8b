package state_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/state"
)

func newPostgresStore(t *testing.T) (*state.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return state.NewPostgresStore(sqlxDB, logger.NewNopLogger()), mock
}

func TestPostgresStoreLoad(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantPosts int
	}{
		{
			name: "returns stored document",
			setupMock: func(mock sqlmock.Sqlmock) {
				doc, _ := json.Marshal(map[string]any{
					"schema_version": state.SchemaVersion,
					"last_run_date":  "2999-01-01",
					"profiles": map[string]any{
						"site-a": map[string]any{"posts_today": 4},
					},
				})
				rows := sqlmock.NewRows([]string{"document"}).AddRow(doc)
				mock.ExpectQuery("SELECT document FROM publisher_state").WillReturnRows(rows)
			},
			wantPosts: 4,
		},
		{
			name: "initializes defaults when no row exists",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT document FROM publisher_state").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectExec("INSERT INTO publisher_state").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantPosts: 0,
		},
		{
			name: "recovers from a corrupt document",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"document"}).AddRow([]byte("not json"))
				mock.ExpectQuery("SELECT document FROM publisher_state").WillReturnRows(rows)
				mock.ExpectExec("INSERT INTO publisher_state").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantPosts: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newPostgresStore(t)
			tc.setupMock(mock)

			s := store.Load(ctx, []string{"site-a"}, true)

			if s == nil {
				t.Fatal("Load() returned nil")
			}
			if got := s.Profile("site-a").PostsToday; got != tc.wantPosts {
				t.Errorf("PostsToday = %d, want %d", got, tc.wantPosts)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPostgresStoreSave(t *testing.T) {
	ctx := context.Background()
	store, mock := newPostgresStore(t)

	mock.ExpectExec("INSERT INTO publisher_state").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := state.New([]string{"site-a"}, time.Now())
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStoreSaveError(t *testing.T) {
	ctx := context.Background()
	store, mock := newPostgresStore(t)

	mock.ExpectExec("INSERT INTO publisher_state").WillReturnError(sql.ErrConnDone)

	s := state.New(nil, time.Now())
	if err := store.Save(ctx, s); err == nil {
		t.Error("Save() error = nil, want connection error")
	}
}
